package session

// State is the position of a session in the purchase lifecycle.
type State string

const (
	StateSelected  State = "SELECTED"
	StatePaying    State = "PAYING"
	StateReady     State = "READY"
	StateOverpaid  State = "OVERPAID"
	StateConfirmed State = "CONFIRMED"
)

// PaymentStatus compares the inserted amount with the price.
type PaymentStatus string

const (
	PaymentNotEnough PaymentStatus = "NOT_ENOUGH"
	PaymentEnough    PaymentStatus = "ENOUGH"
	PaymentExcess    PaymentStatus = "EXCESS"
)

func (s *Session) State() State {
	switch {
	case s.Confirmed:
		return StateConfirmed
	case s.Paid == 0:
		return StateSelected
	case s.Paid < s.Price:
		return StatePaying
	case s.Paid == s.Price:
		return StateReady
	default:
		return StateOverpaid
	}
}

func (s *Session) PaymentStatus() PaymentStatus {
	switch {
	case s.Paid < s.Price:
		return PaymentNotEnough
	case s.Paid == s.Price:
		return PaymentEnough
	default:
		return PaymentExcess
	}
}
