package e2e

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shastralib/granthalaya/internal/models"
)

// VerseEntry is one verse of the generated scripture in flattened form:
// its location plus the texts that went into the payload. Term is a
// signature word unique enough to pin search results to this verse.
type VerseEntry struct {
	Location   models.Location
	Term       string
	English    string
	Sanskrit   string
	Commentary string
}

// QueryTestCase defines a query and the verse location(s) that must appear
// in search results. At least one of Expected must be present.
type QueryTestCase struct {
	Query       string
	Expected    []models.Location
	Description string
}

// Corpus holds a complete untyped scripture document plus the flattened
// entries and query test cases derived from it.
type Corpus struct {
	Document      map[string]any
	Entries       []VerseEntry
	TestCases     []QueryTestCase
	TotalChapters int
	TotalVerses   int
	TotalQueries  int
}

// Payload returns the corpus document as JSON, the form the ingestion
// pipeline accepts.
func (c *Corpus) Payload() []byte {
	data, _ := json.Marshal(c.Document)
	return data
}

// Chapter numbering skips 8 and chapter 4 skips verse numbers 3 and 6:
// numbering gaps are legal and the traversal tests depend on them being here.
var corpusChapterNumbers = []int{1, 2, 3, 4, 5, 6, 7, 9, 10}

func corpusVerseNumbers(chapter int) []int {
	if chapter == 4 {
		return []int{1, 2, 4, 5, 7, 8}
	}
	return []int{1, 2, 3, 4, 5, 6}
}

var corpusChapterTitles = map[int]string{
	1:  "The Field of Steady Wisdom",
	2:  "The Way of Action",
	3:  "The Vows of Restraint",
	4:  "The Fourfold Means",
	5:  "The Limbs of Stillness",
	6:  "The Inner Instrument",
	7:  "The Seer and the Seen",
	9:  "The Strands of Nature",
	10: "The Abidings and the Way Out",
}

// corpusThemes is one entry per verse. Each theme carries a signature term
// that appears in the English rendering, and usually in the transliterated
// line as well.
var corpusThemes = []struct {
	term     string
	english  string
	sanskrit string
}{
	{"sthitaprajna", "The sage of steady wisdom, sthitaprajna, is unmoved by sorrow.", "duhkhesv anudvigna-manah sthitaprajna ucyate"},
	{"nishkama", "Work done as nishkama offering seeks no fruit and binds no doer.", "nishkama-karma-yogena mucyate kavayah"},
	{"svadharma", "Better one's own svadharma done imperfectly than another's done well.", "shreyan sva-dharmo vigunah para-dharmat"},
	{"karmaphala", "To the fruit of action, karmaphala, the wise remain unattached.", "karma-phala-tyagi sa tyagity abhidhiyate"},
	{"jnanayoga", "The path of discernment is jnanayoga, the yoga of knowing.", "jnana-yogena sankhyanam karma-yogena yoginam"},
	{"bhaktiyoga", "Loving trust in the beloved is bhaktiyoga, reached through devotion.", "bhaktya mam abhijanati yavan yash casmi"},
	{"dhyanayoga", "Sitting alone in stillness the yogi mounts dhyanayoga.", "dhyana-yogena atmanam pashyanti kecit"},
	{"vairagya", "Dispassion named vairagya loosens the knots of wanting.", "abhyasena tu kaunteya vairagyena ca grhyate"},
	{"abhyasa", "Steady abhyasa, practice repeated daily, tames the restless mind.", "abhyasa-yoga-yuktena cetasa nanya-gamina"},
	{"shraddha", "A person is made of shraddha; as the trust, so the person.", "shraddhamayo yam purusho yo yac-chraddhah sa eva sah"},
	{"samatva", "Evenness of mind in gain and loss is samatva, called yoga.", "samatvam yoga ucyate"},
	{"yajna", "All work ripens into offering when done as yajna.", "yajnarthat karmano nyatra loko yam karma-bandhanah"},
	{"tapas", "Heat of discipline, tapas, burns the dross from resolve.", "tapasvibhyo dhiko yogi jnanibhyo pi mato dhikah"},
	{"dana", "Giving as dana, at the right time to the right one, purifies wealth.", "datavyam iti yad danam diyate nupakarine"},
	{"ahimsa", "Harmlessness, ahimsa, is the first vow of the restrained.", "ahimsa satyam akrodhas tyagah shantir apaishunam"},
	{"satya", "Truthful speech, satya, spoken gently, is austerity of the tongue.", "satyam bruyat priyam bruyat na bruyat satyam apriyam"},
	{"asteya", "Non-taking, asteya, extends beyond the hand to the wish.", "asteya-pratisthayam sarva-ratnopasthanam"},
	{"aparigraha", "Holding nothing as mine, aparigraha, lightens the traveler.", "aparigraha-sthairye janma-kathanta-sambodhah"},
	{"santosha", "Contentment, santosha, is wealth that cannot be spent.", "santoshad anuttamah sukha-labhah"},
	{"svadhyaya", "Daily study of the rolls, svadhyaya, keeps the lamp trimmed.", "svadhyayan ma pramadah"},
	{"viveka", "Discernment between the lasting and the passing is viveka.", "nitya-anitya-vastu-viveka iti prathamam"},
	{"mumukshutva", "Burning wish for release, mumukshutva, drives the seeker on.", "mumukshutvam iti sadhana-chatushtayam"},
	{"shama", "Calming of the mind, shama, is the first inner wealth.", "shama-damadi-sadhana-sampat"},
	{"dama", "Restraint of the senses, dama, guards the gates.", "damena labhate svargam"},
	{"titiksha", "Forbearance, titiksha, bears heat and cold without complaint.", "titiksha sahanam sarva-duhkhanam"},
	{"samadhana", "Collectedness, samadhana, settles thought upon the one aim.", "samadhanam cittaikagrata"},
	{"atmajnana", "Knowledge of the self, atmajnana, outshines all rites.", "atma-jnanam idam shreshtham iti vedanteshu giyate"},
	{"brahmavidya", "The science of the absolute, brahmavidya, crowns the teachings.", "brahmavidya sarva-vidya-pratishtha"},
	{"pranayama", "Measured breath, pranayama, steadies the flame within.", "pranayamair dagdha-doshah"},
	{"pratyahara", "Withdrawal of the senses, pratyahara, turns the gaze inward.", "pratyaharas tena paramo vasho indriyanam"},
	{"dharana", "Fixing attention on one point is dharana.", "desha-bandhash chittasya dharana"},
	{"samadhi", "Absorption, samadhi, is the rain after long tilling.", "samadhi-siddhir ishvara-pranidhanat"},
	{"kaivalya", "Aloneness of the seer, kaivalya, is the final shore.", "purushartha-shunyanam gunanam kaivalyam"},
	{"turiya", "The fourth state, turiya, witnesses waking, dream and sleep.", "turiyam eva caturtham manyante"},
	{"antahkarana", "The inner instrument, antahkarana, reflects the light it faces.", "antahkarana-shuddhi-karanam karma"},
	{"chitta", "Mind-stuff, chitta, takes the shape of what it dwells on.", "yogash chitta-vritti-nirodhah"},
	{"vritti", "Each arising wave of thought is a vritti to be stilled.", "vritti-sarupyam itaratra"},
	{"avidya", "Ignorance, avidya, is the field where the other afflictions grow.", "avidya kshetram uttaresham"},
	{"purusha", "The witness, purusha, watches and does not act.", "drashta drishi-matrah shuddho purusha"},
	{"prakriti", "Nature, prakriti, spins the three strands of the world.", "prakriteh kriyamanani gunaih karmani sarvashah"},
	{"sattva", "Clarity, sattva, binds by attachment to joy and knowing.", "sattvam sukhe sanjayati"},
	{"rajas", "Restlessness, rajas, binds by attachment to action.", "rajah karmani bharata"},
	{"tamas", "Dullness, tamas, binds by heedlessness and sleep.", "tamas tu ajnana-jam viddhi"},
	{"maya", "The veiling power, maya, is hard to cross without refuge.", "mama maya duratyaya"},
	{"samsara", "The turning wheel, samsara, carries the unready round again.", "samsara-sagara-taranam iti"},
	{"moksha", "Release, moksha, is not gained but uncovered.", "moksha-sannyasa-yogam iti shrnu"},
	{"nirvana", "The blowing-out, nirvana, ends the fever of craving.", "nibbanam paramam sukham"},
	{"metta", "Boundless friendliness, metta, is the first abiding.", "metta-sahagatena cetasa"},
	{"karuna", "Compassion, karuna, trembles at the pain of others.", "karuna-sahagatena cetasa"},
	{"mudita", "Gladness at another's good, mudita, uproots envy.", "mudita-sahagatena cetasa"},
	{"upekkha", "Even-minded onlooking, upekkha, completes the four abidings.", "upekkha-sahagatena cetasa"},
	{"anicca", "All formations are passing, anicca; see this and turn.", "sabbe sankhara anicca"},
	{"dukkha", "Clinging to the passing is dukkha, the ache in things.", "sabbe sankhara dukkha"},
	{"anatta", "No lasting self is found in the heaps, anatta.", "sabbe dhamma anatta"},
}

// BuildCorpus returns a nine-chapter scripture with 54 verses, deliberate
// numbering gaps, commentaries on every seventh verse, and query test cases
// derived from the signature terms.
func BuildCorpus() *Corpus {
	entries := make([]VerseEntry, 0, len(corpusThemes))
	chapterPayloads := make([]map[string]any, 0, len(corpusChapterNumbers))

	idx := 0
	for _, cn := range corpusChapterNumbers {
		versePayloads := make([]map[string]any, 0, 6)
		for _, vn := range corpusVerseNumbers(cn) {
			theme := corpusThemes[idx]
			entry := VerseEntry{
				Location: models.Location{Chapter: cn, Verse: vn},
				Term:     theme.term,
				English:  theme.english,
				Sanskrit: theme.sanskrit,
			}
			verse := VersePayload(vn, theme.english, theme.sanskrit)
			if commentary := commentaryFor(idx, theme.term); commentary != "" {
				verse = WithCommentary(verse, commentAuthorID(idx), commentAuthorName(idx), commentTradition(idx), commentary)
				entry.Commentary = commentary
			}
			versePayloads = append(versePayloads, verse)
			entries = append(entries, entry)
			idx++
		}
		chapterPayloads = append(chapterPayloads, ChapterPayload(cn, corpusChapterTitles[cn], versePayloads...))
	}

	cases := buildQueryTestCases(entries)
	return &Corpus{
		Document:      ScripturePayload(chapterPayloads...),
		Entries:       entries,
		TestCases:     cases,
		TotalChapters: len(corpusChapterNumbers),
		TotalVerses:   len(entries),
		TotalQueries:  len(cases),
	}
}

// commentaryFor attaches a commentary to every seventh verse. The samatva
// verse carries wording found nowhere in any verse text, so one query case
// can prove commentaries are searchable.
func commentaryFor(idx int, term string) string {
	if idx%7 != 3 {
		return ""
	}
	if term == "samatva" {
		return "Reading the rope as a serpent is adhyasa; evenness begins when the serpent is seen through."
	}
	return fmt.Sprintf("The commentator notes that %s names the discipline this verse teaches.", term)
}

func commentAuthorID(idx int) string {
	if idx >= 46 {
		return "buddhaghosa"
	}
	return "shankara"
}

func commentAuthorName(idx int) string {
	if idx >= 46 {
		return "Buddhaghosa"
	}
	return "Adi Shankara"
}

func commentTradition(idx int) string {
	if idx >= 46 {
		return "theravada"
	}
	return "advaita-vedanta"
}

// buildQueryTestCases derives one case per even-numbered entry plus a few
// phrase cases. Expected lists every verse whose texts contain the query's
// rarest word, so ranking shifts cannot break the assertions.
func buildQueryTestCases(entries []VerseEntry) []QueryTestCase {
	var cases []QueryTestCase
	for i, e := range entries {
		if i%2 != 0 {
			continue
		}
		cases = append(cases, QueryTestCase{
			Query:       e.Term,
			Expected:    locationsContaining(entries, e.Term),
			Description: fmt.Sprintf("query %q should find verse %d:%d", e.Term, e.Location.Chapter, e.Location.Verse),
		})
	}

	cases = append(cases,
		QueryTestCase{
			Query:       "steady wisdom",
			Expected:    locationsContaining(entries, "wisdom"),
			Description: "multi-word query matches the sthitaprajna verse",
		},
		QueryTestCase{
			Query:       "rope serpent",
			Expected:    locationsContaining(entries, "serpent"),
			Description: "commentary-only wording is searchable",
		},
		QueryTestCase{
			Query:       "nibbanam paramam",
			Expected:    locationsContaining(entries, "nibbanam"),
			Description: "transliterated line is searchable",
		},
	)
	return cases
}

// locationsContaining returns the locations of every entry whose texts
// contain the word, case-insensitively.
func locationsContaining(entries []VerseEntry, word string) []models.Location {
	var out []models.Location
	for _, e := range entries {
		if entryContains(e, word) {
			out = append(out, e.Location)
		}
	}
	return out
}

func entryContains(e VerseEntry, word string) bool {
	w := strings.ToLower(word)
	return strings.Contains(strings.ToLower(e.English), w) ||
		strings.Contains(strings.ToLower(e.Sanskrit), w) ||
		strings.Contains(strings.ToLower(e.Commentary), w)
}
