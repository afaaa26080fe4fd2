package phizone

// User is the subset of a PhiZone user profile the bot consumes.
type User struct {
	ID       int64   `json:"id"`
	UserName string  `json:"userName"`
	Rks      float64 `json:"rks"`
}

// Song carries the song-level metadata embedded in every chart payload.
type Song struct {
	Title       string `json:"title"`
	AuthorName  string `json:"authorName"`
	Illustrator string `json:"illustrator"`
}

// Tag is a chart tag; only the name is displayed.
type Tag struct {
	Name string `json:"name"`
}

// Chart is a playable level with difficulty, authorship, and rating metadata.
// Author fields may embed mention tokens; resolution happens in the format
// package, not here.
type Chart struct {
	ID                    string  `json:"id"`
	Song                  Song    `json:"song"`
	Level                 string  `json:"level"`
	Difficulty            float64 `json:"difficulty"`
	AuthorName            string  `json:"authorName"`
	Illustrator           string  `json:"illustrator"`
	NoteCount             int     `json:"noteCount"`
	Rating                float64 `json:"rating"`
	RatingOnArrangement   float64 `json:"ratingOnArrangement"`
	RatingOnGameplay      float64 `json:"ratingOnGameplay"`
	RatingOnVisualEffects float64 `json:"ratingOnVisualEffects"`
	RatingOnCreativity    float64 `json:"ratingOnCreativity"`
	IsRanked              bool    `json:"isRanked"`
	PlayCount             int     `json:"playCount"`
	LikeCount             int     `json:"likeCount"`
	DateCreated           string  `json:"dateCreated"`
	DateUpdated           string  `json:"dateUpdated"`
	DateFileUpdated       string  `json:"dateFileUpdated"`
	Tags                  []Tag   `json:"tags"`
}

// RecordOwner identifies the player a record belongs to.
type RecordOwner struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
}

// Record is one recorded play attempt against a chart.
type Record struct {
	Chart        Chart       `json:"chart"`
	Owner        RecordOwner `json:"owner"`
	Score        int         `json:"score"`
	Accuracy     float64     `json:"accuracy"`
	Rks          float64     `json:"rks"`
	MaxCombo     int         `json:"maxCombo"`
	Perfect      int         `json:"perfect"`
	GoodEarly    int         `json:"goodEarly"`
	GoodLate     int         `json:"goodLate"`
	Bad          int         `json:"bad"`
	Miss         int         `json:"miss"`
	StdDeviation float64     `json:"stdDeviation"`
	DateCreated  string      `json:"dateCreated"`
}

// PersonalBests is a user's highest-rated record plus their top 19 by rating.
// Phi1 may be nil and Best19 may be empty for accounts with no plays.
type PersonalBests struct {
	Phi1   *Record  `json:"phi1"`
	Best19 []Record `json:"best19"`
}
