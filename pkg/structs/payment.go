package structs

// PaymentInstructions describe how to pay for a job. They're returned on
// creation and again on every payment-required response; instructions are
// always fresh and reusable.
type PaymentInstructions struct {
	// Amount owed, denominated in Currency
	Amount float64 `json:"amount"`

	// Currency the amount is denominated in
	Currency string `json:"currency"`

	// Methods accepted by the verifier, eg. "transfer"
	Methods []string `json:"methods"`

	// PayTo is the address / account payment should be sent to
	PayTo string `json:"pay_to,omitempty"`

	// VerifierURL is the endpoint proofs are checked against, if any
	VerifierURL string `json:"verifier_url,omitempty"`
}

// Receipt is the verifier's affirmative verdict on a payment proof.
type Receipt struct {
	// TransactionRef is the verifier's reference for the settled payment
	TransactionRef string `json:"transaction_ref"`

	// Amount / Currency actually verified
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}
