package models

// MQuoteResponse is the top-level body returned by the Alpha Vantage quote
// endpoint. Exactly one of the three members is populated on a well-formed
// response: the quote container, an explicit error message, or a rate-limit
// note.
type MQuoteResponse struct {
	GlobalQuote  *MGlobalQuote `json:"Global Quote"`
	ErrorMessage string        `json:"Error Message"`
	Note         string        `json:"Note"`
}

// MGlobalQuote carries the raw GLOBAL_QUOTE fields. Every value arrives as a
// string; the provider uses "N/A" when a field is not available.
type MGlobalQuote struct {
	Symbol           string `json:"01. symbol"`
	Open             string `json:"02. open"`
	High             string `json:"03. high"`
	Low              string `json:"04. low"`
	Price            string `json:"05. price"`
	Volume           string `json:"06. volume"`
	LatestTradingDay string `json:"07. latest trading day"`
	PreviousClose    string `json:"08. previous close"`
	Change           string `json:"09. change"`
	ChangePercent    string `json:"10. change percent"`
}
