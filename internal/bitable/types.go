package bitable

// Credentials identifies one credential scope of the table service.
// Tenant tokens are fetched and cached per AppID.
type Credentials struct {
	AppID     string
	AppSecret string
}

// Scope points one adapter at a concrete table: which credentials to
// authenticate with and which app/table to address.
type Scope struct {
	Credentials
	AppToken string
	TableID  string
}

// Record is one raw row as returned by the table service.
type Record struct {
	ID        string `json:"record_id"`
	Fields    Fields `json:"fields"`
	CreatedAt int64  `json:"created_time"` // epoch millis, may be 0
}

// Page is one slice of a cursor-paginated listing. Callers follow
// PageToken while HasMore is true to obtain the full listing.
type Page struct {
	Items     []Record
	HasMore   bool
	PageToken string
}

// envelope is the uniform response wrapper of the service.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type listData struct {
	Items     []Record `json:"items"`
	HasMore   bool     `json:"has_more"`
	PageToken string   `json:"page_token"`
	Total     int      `json:"total"`
}

type recordData struct {
	Record Record `json:"record"`
}

type tableData struct {
	TableID string `json:"table_id"`
}

type tokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"` // seconds
}
