package events

// Domain event types published per order stream.
const (
	TypePaymentInitiated     = "PaymentInitiated"
	TypeTokensBurned         = "TokensBurned"
	TypePaymentIntentCreated = "PaymentIntentCreated"
	TypePaymentAuthorized    = "PaymentAuthorized"
	TypeOrderSettled         = "OrderSettled"
	TypePaymentFailed        = "PaymentFailed"
	TypeAssetMinted          = "AssetMinted"
	TypeMintingFailed        = "MintingFailed"
)

// ContentType is the media type the event store expects for event batches.
const ContentType = "application/vnd.eventstore.events+json"

// Envelope is one event as posted to the store. Events always travel as a
// single-element JSON array.
type Envelope struct {
	EventID   string      `json:"eventId"`
	EventType string      `json:"eventType"`
	Data      interface{} `json:"data"`
}

// StreamName joins the configured prefix with the order id.
func StreamName(prefix, orderID string) string {
	return prefix + "-" + orderID
}
