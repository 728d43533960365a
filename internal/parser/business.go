package parser

import "regexp"

// Business-function categories hinted by identifiers and comments
const (
	BusinessCustomerValidation  = "CUSTOMER_VALIDATION"
	BusinessInventoryManagement = "INVENTORY_MANAGEMENT"
	BusinessPaymentProcessing   = "PAYMENT_PROCESSING"
	BusinessTaxCalculation      = "TAX_CALCULATION"
	BusinessShippingLogistics   = "SHIPPING_LOGISTICS"
	BusinessLoyaltyRewards      = "LOYALTY_REWARDS"
	BusinessPromotionDiscount   = "PROMOTION_DISCOUNT"
	BusinessAuditLogging        = "AUDIT_LOGGING"
	BusinessNotification        = "NOTIFICATION"
	BusinessReporting           = "REPORTING"
)

// BusinessRule maps a keyword pattern to a business-function category
type BusinessRule struct {
	Category string
	Pattern  *regexp.Regexp
}

// DefaultBusinessRules is checked in order against the upper-cased line,
// comments included, since comments usually name the business step
var DefaultBusinessRules = []BusinessRule{
	{BusinessCustomerValidation, regexp.MustCompile(`CUSTOMER.*VALID|@CUSTOMER.*CHECK|CUSTOMER.*EXIST`)},
	{BusinessInventoryManagement, regexp.MustCompile(`INVENTORY|\bSTOCK|WAREHOUSE|ALLOCATION`)},
	{BusinessPaymentProcessing, regexp.MustCompile(`PAYMENT|AUTHORI[SZ]E|\bCHARGE`)},
	{BusinessTaxCalculation, regexp.MustCompile(`\bTAX|RATE.*CALCULAT`)},
	{BusinessShippingLogistics, regexp.MustCompile(`SHIPPING|SHIPMENT|DELIVERY|FREIGHT|CARRIER`)},
	{BusinessLoyaltyRewards, regexp.MustCompile(`LOYALTY|\bPOINTS\b|REWARD|\bTIER`)},
	{BusinessPromotionDiscount, regexp.MustCompile(`PROMO|DISCOUNT|COUPON|\bOFFER`)},
	{BusinessAuditLogging, regexp.MustCompile(`AUDIT|\bLOGS?\b|_LOG\b|\bTRACK|HISTORY`)},
	{BusinessNotification, regexp.MustCompile(`NOTIFICATION|\bALERT|\bEMAIL|\bMESSAGE\b`)},
	{BusinessReporting, regexp.MustCompile(`REPORT|\bSUMMARY|ANALYTICS|STATISTICS`)},
}

// detectBusinessFunctions returns every category whose pattern matches upper
func detectBusinessFunctions(rules []BusinessRule, upper string) []string {
	var out []string
	for _, r := range rules {
		if r.Pattern.MatchString(upper) && !containsString(out, r.Category) {
			out = append(out, r.Category)
		}
	}
	return out
}
