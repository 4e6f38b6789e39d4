package equipment

type CreateRequest struct {
	Title       string `json:"title" binding:"required,min=3,max=200"`
	Description string `json:"description" binding:"max=5000"`
	Category    string `json:"category" binding:"required,max=64"`
	City        string `json:"city" binding:"required,max=120"`
	DailyRate   int64  `json:"daily_rate" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"omitempty,len=3"`
	Deposit     int64  `json:"deposit" binding:"gte=0"`
}

type UpdateRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=3,max=200"`
	Description *string `json:"description" binding:"omitempty,max=5000"`
	Category    *string `json:"category" binding:"omitempty,max=64"`
	City        *string `json:"city" binding:"omitempty,max=120"`
	DailyRate   *int64  `json:"daily_rate" binding:"omitempty,gt=0"`
	Deposit     *int64  `json:"deposit" binding:"omitempty,gte=0"`
	IsActive    *bool   `json:"is_active"`
}

type SearchResult struct {
	Items  []Equipment `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
