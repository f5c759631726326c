package models

import "time"

type Platform string

const (
	PlatformTwitter   Platform = "twitter"
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformNews      Platform = "news"
)

type SentimentLabel string

const (
	SentimentPanic       SentimentLabel = "panic"
	SentimentConcern     SentimentLabel = "concern"
	SentimentNeutral     SentimentLabel = "neutral"
	SentimentInformative SentimentLabel = "informative"
	SentimentReassuring  SentimentLabel = "reassuring"
)

type Sentiment struct {
	Label SentimentLabel `json:"label"`
	Score float64        `json:"score"` // [-10, 10]
}

type Engagement struct {
	Likes    int `json:"likes"`
	Shares   int `json:"shares"`
	Comments int `json:"comments"`
}

// SyntheticPost is a fabricated social-media post used for demo and load data.
type SyntheticPost struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"`
	Author         string     `json:"author"`
	Content        string     `json:"content"`
	HazardType     HazardType `json:"hazardType"`
	Severity       Severity   `json:"severity"`
	Sentiment      Sentiment  `json:"sentiment"`
	Keywords       []string   `json:"keywords"`
	Engagement     Engagement `json:"engagement"`
	Location       Location   `json:"location"`
	RelevanceScore float64    `json:"relevanceScore"` // [0, 100]
	IsSynthetic    bool       `json:"isSynthetic"`
	PostedAt       time.Time  `json:"postedAt"`
}

// PostStats aggregates posts for the monitoring dashboard.
type PostStats struct {
	Total            int                    `json:"total"`
	BySentiment      map[SentimentLabel]int `json:"bySentiment"`
	ByPlatform       map[Platform]int       `json:"byPlatform"`
	ByHazardType     map[HazardType]int     `json:"byHazardType"`
	AverageSentiment float64                `json:"averageSentiment"`
	AverageRelevance float64                `json:"averageRelevance"`
}
