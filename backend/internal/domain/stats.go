package domain

// HobbyCount is a hobby and the number of users listing it
type HobbyCount struct {
	Hobby string `json:"hobby"`
	Count int    `json:"count"`
}

// Stats is the aggregate view served to the dashboard
type Stats struct {
	TotalUsers       int64        `json:"totalUsers"`
	TotalConnections int64        `json:"totalConnections"`
	AverageAge       float64      `json:"averageAge"`
	AverageFriends   float64      `json:"averageFriends"`
	HighScoreUsers   int64        `json:"highScoreUsers"`
	IsolatedUsers    int64        `json:"isolatedUsers"`
	TopHobbies       []HobbyCount `json:"topHobbies"`
}

// Pagination describes one page of a listing
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}
