package recommend

// musicCategories seeds random recommendations when there is no listening
// history to go on.
var musicCategories = []string{
	"pop hits 2024",
	"top rock songs",
	"best hip hop",
	"electronic dance music",
	"jazz classics",
	"classical music",
	"country hits",
	"r&b soul",
	"reggae music",
	"blues music",
	"indie pop",
	"alternative rock",
	"edm hits",
	"latin music hits",
	"kpop hits",
	"metal music",
	"folk music",
	"soul classics",
	"funk music",
	"disco hits",
	"lofi beats",
	"chill music",
	"workout music",
	"party songs",
}
