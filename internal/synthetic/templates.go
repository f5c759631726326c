package synthetic

import (
	"strings"

	"github.com/mr1hm/go-ocean-hazards/internal/models"
)

// Placeholders: {place} and {hazard}.
var postTemplates = map[models.HazardType]map[models.SentimentLabel][]string{
	models.HazardTsunami: {
		models.SentimentPanic: {
			"The sea just pulled back at {place}!! Everyone run to high ground NOW #tsunami",
			"Tsunami sirens going off near {place}, people are panicking, please share",
		},
		models.SentimentConcern: {
			"Felt a strong tremor near {place}, anyone know if there is a tsunami warning?",
			"Water level looks strange at {place} after the quake. Staying alert.",
		},
		models.SentimentNeutral: {
			"Tsunami advisory mentioned on the radio for the {place} coast.",
		},
		models.SentimentInformative: {
			"Tsunami warning issued for {place}. Move at least 2 km inland or to upper floors.",
			"Official: tsunami watch in effect for {place}. Follow evacuation route signs.",
		},
		models.SentimentReassuring: {
			"Tsunami warning for {place} has been withdrawn. Sea levels normal.",
		},
	},
	models.HazardCyclone: {
		models.SentimentPanic: {
			"Roof just flew off next door at {place}, the cyclone is much worse than they said",
			"Can't reach my family in {place}, cyclone winds are terrifying #help",
		},
		models.SentimentConcern: {
			"Cyclone expected to make landfall near {place} tonight. Stocking up on water.",
			"Winds picking up fast at {place}, trees already down on the main road.",
		},
		models.SentimentNeutral: {
			"Cloudy and windy at {place}, cyclone still offshore according to the news.",
		},
		models.SentimentInformative: {
			"Cyclone update: landfall likely near {place} within 12 hours. Shelters open at schools.",
			"{place}: fishermen advised not to venture into the sea for the next 48 hours.",
		},
		models.SentimentReassuring: {
			"The cyclone weakened before reaching {place}. Power is back in most areas.",
		},
	},
	models.HazardFlood: {
		models.SentimentPanic: {
			"Water entering homes in {place}, ground floor fully submerged, need rescue boats!",
		},
		models.SentimentConcern: {
			"Streets in {place} waterlogged after heavy rain, avoid travel if you can.",
			"Flood water rising near {place} bus stand, kids stuck at school.",
		},
		models.SentimentNeutral: {
			"Some waterlogging reported around {place} this morning.",
		},
		models.SentimentInformative: {
			"Relief camps set up in {place}. Helpline numbers shared by the district office.",
		},
		models.SentimentReassuring: {
			"Flood waters receding in {place}, roads reopening slowly.",
		},
	},
	models.HazardStormSurge: {
		models.SentimentPanic: {
			"Sea water rushing into the village at {place}, storm surge hit all at once!",
		},
		models.SentimentConcern: {
			"Tide is unusually high at {place}, sea water already on the coastal road.",
		},
		models.SentimentNeutral: {
			"Storm surge warning listed for {place} in today's bulletin.",
		},
		models.SentimentInformative: {
			"Storm surge of 1-2 m expected at {place} during high tide. Stay away from the shore.",
		},
		models.SentimentReassuring: {
			"Surge at {place} was lower than forecast, no major damage reported.",
		},
	},
	models.HazardHighWaves: {
		models.SentimentPanic: {
			"Huge waves smashing over the sea wall at {place}, boats being tossed around!",
		},
		models.SentimentConcern: {
			"Very rough sea at {place} today, waves reaching the road.",
			"High waves at {place}, several fishing boats still out there.",
		},
		models.SentimentNeutral: {
			"Sea looks rough at {place} this evening.",
		},
		models.SentimentInformative: {
			"High wave alert: 3-4 m swells forecast along {place}. Beach access closed.",
		},
		models.SentimentReassuring: {
			"Sea calming down at {place}, fishermen returning safely.",
		},
	},
}

var genericTemplates = map[models.SentimentLabel][]string{
	models.SentimentPanic:       {"Something is very wrong at {place}, {hazard} getting worse by the minute!"},
	models.SentimentConcern:     {"Worried about the {hazard} situation at {place}. Anyone nearby?"},
	models.SentimentNeutral:     {"Reports of {hazard} around {place}."},
	models.SentimentInformative: {"Update on {hazard} at {place}: authorities monitoring, follow official advice."},
	models.SentimentReassuring:  {"The {hazard} at {place} is under control now."},
}

var reportTitles = map[models.HazardType][]string{
	models.HazardTsunami:        {"Possible tsunami near {place}", "Sea receding abnormally at {place}"},
	models.HazardCyclone:        {"Cyclone damage at {place}", "Strong cyclonic winds near {place}"},
	models.HazardFlood:          {"Flooding reported in {place}", "Coastal flooding at {place}"},
	models.HazardStormSurge:     {"Storm surge flooding at {place}"},
	models.HazardHighWaves:      {"High waves at {place}", "Waves overtopping sea wall at {place}"},
	models.HazardCoastalErosion: {"Shoreline erosion at {place}"},
	models.HazardRipCurrent:     {"Rip current warning at {place}"},
	models.HazardOilSpill:       {"Oil slick sighted off {place}"},
	models.HazardOther:          {"Coastal hazard observed at {place}"},
}

func render(tmpl, place string, hazard models.HazardType) string {
	return strings.NewReplacer(
		"{place}", place,
		"{hazard}", strings.ReplaceAll(string(hazard), "_", " "),
	).Replace(tmpl)
}
