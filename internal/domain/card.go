package domain

// ============================================================
// Credit Card catalog
// ============================================================

// Category is the market tier a card is sold in.
type Category string

const (
	CategoryPremium    Category = "Premium"
	CategoryMidTier    Category = "Mid-tier"
	CategoryEntryLevel Category = "Entry-level"
	CategoryCashback   Category = "Cashback"
)

// NetworkType is the payment network a card runs on.
type NetworkType string

const (
	NetworkVisa       NetworkType = "Visa"
	NetworkMastercard NetworkType = "Mastercard"
	NetworkRuPay      NetworkType = "RuPay"
)

// CardRecord is a single credit card in the catalog. Records are loaded once
// at startup and never mutated afterwards.
type CardRecord struct {
	ID                     string      `json:"id"`
	Name                   string      `json:"name"`
	Bank                   string      `json:"bank"`
	Category               Category    `json:"category"`
	AnnualFee              int         `json:"annualFee"`  // whole rupees
	JoiningFee             int         `json:"joiningFee"` // whole rupees
	RewardType             string      `json:"rewardType"`
	RewardRate             string      `json:"rewardRate"`
	LoungeAccess           bool        `json:"loungeAccess"`
	FuelCashback           bool        `json:"fuelCashback"`
	Eligibility            string      `json:"eligibility"`
	Benefits               []string    `json:"benefits"`
	CashbackRate           string      `json:"cashbackRate"`
	BestFor                []string    `json:"bestFor"`
	NetworkType            NetworkType `json:"networkType"`
	Contactless            bool        `json:"contactless"`
	OnlineShoppingCashback string      `json:"onlineShoppingCashback"`
	DiningCashback         string      `json:"diningCashback"`
	Image                  string      `json:"image"`
}

// FilterCriteria is the structured filter built from UI state or extracted
// from a free-text query. A nil pointer or an empty list means "no constraint".
type FilterCriteria struct {
	Banks        []string `json:"banks,omitempty"`
	Categories   []string `json:"categories,omitempty"`
	NetworkTypes []string `json:"networkTypes,omitempty"`
	LoungeAccess *bool    `json:"loungeAccess,omitempty"`
	FuelCashback *bool    `json:"fuelCashback,omitempty"`
	NoAnnualFee  *bool    `json:"noAnnualFee,omitempty"`
	MaxAnnualFee *int     `json:"maxAnnualFee,omitempty"`
}

// IsZero reports whether the criteria impose no constraint at all.
func (f FilterCriteria) IsZero() bool {
	return len(f.Banks) == 0 &&
		len(f.Categories) == 0 &&
		len(f.NetworkTypes) == 0 &&
		f.LoungeAccess == nil &&
		f.FuelCashback == nil &&
		f.NoAnnualFee == nil &&
		f.MaxAnnualFee == nil
}

// CardField names a CardRecord field by its JSON name. Used for sorting and facets.
type CardField string

const (
	FieldID                     CardField = "id"
	FieldName                   CardField = "name"
	FieldBank                   CardField = "bank"
	FieldCategory               CardField = "category"
	FieldAnnualFee              CardField = "annualFee"
	FieldJoiningFee             CardField = "joiningFee"
	FieldRewardType             CardField = "rewardType"
	FieldRewardRate             CardField = "rewardRate"
	FieldLoungeAccess           CardField = "loungeAccess"
	FieldFuelCashback           CardField = "fuelCashback"
	FieldEligibility            CardField = "eligibility"
	FieldBenefits               CardField = "benefits"
	FieldCashbackRate           CardField = "cashbackRate"
	FieldBestFor                CardField = "bestFor"
	FieldNetworkType            CardField = "networkType"
	FieldContactless            CardField = "contactless"
	FieldOnlineShoppingCashback CardField = "onlineShoppingCashback"
	FieldDiningCashback         CardField = "diningCashback"
)

var knownFields = map[CardField]struct{}{
	FieldID: {}, FieldName: {}, FieldBank: {}, FieldCategory: {}, FieldAnnualFee: {},
	FieldJoiningFee: {}, FieldRewardType: {}, FieldRewardRate: {}, FieldLoungeAccess: {},
	FieldFuelCashback: {}, FieldEligibility: {}, FieldBenefits: {}, FieldCashbackRate: {},
	FieldBestFor: {}, FieldNetworkType: {}, FieldContactless: {},
	FieldOnlineShoppingCashback: {}, FieldDiningCashback: {},
}

// ParseCardField validates a field name coming from the outside world.
func ParseCardField(s string) (CardField, bool) {
	f := CardField(s)
	_, ok := knownFields[f]
	return f, ok
}

// SortOrder is either ascending or descending.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder validates a sort order; empty defaults to ascending.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(s) {
	case "", SortAsc:
		return SortAsc, true
	case SortDesc:
		return SortDesc, true
	}
	return "", false
}

// CardAnalysis is the pros/cons breakdown shown on the card detail page.
type CardAnalysis struct {
	CardID string   `json:"cardId"`
	Pros   []string `json:"pros"`
	Cons   []string `json:"cons"`
	Source string   `json:"source"` // ai, partial, fallback
}

const (
	AnalysisSourceAI       = "ai"
	AnalysisSourcePartial  = "partial"
	AnalysisSourceFallback = "fallback"
)

// CardFacets lists the distinct values the filter UI offers.
type CardFacets struct {
	Banks        []string `json:"banks"`
	Categories   []string `json:"categories"`
	NetworkTypes []string `json:"networkTypes"`
	BestFor      []string `json:"bestFor"`
}

// CardListResponse is returned by GET /cards.
type CardListResponse struct {
	Cards []CardRecord `json:"cards"`
	Total int          `json:"total"`
}
