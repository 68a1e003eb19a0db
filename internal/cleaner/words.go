package cleaner

// baseProfanity is the default word list applied to lyric lines and track
// titles. Users extend it via the profanity_words config key; matching is
// whole-word and case-insensitive.
var baseProfanity = []string{
	"fuck",
	"fucking",
	"fucked",
	"shit",
	"bitch",
	"bitches",
	"cunt",
	"dick",
	"cock",
	"pussy",
	"asshole",
	"nigga",
	"niggas",
	"nigger",
	"whore",
	"slut",
	"faggot",
	"motherfucker",
	"motherfucking",
	"bastard",
}
