package lifecycle

// Inquiry statuses.
const (
	InquiryNew          Status = "NEW"
	InquiryQualified    Status = "QUALIFIED"
	InquiryDisqualified Status = "DISQUALIFIED"
	InquiryConverted    Status = "CONVERTED"
)

// Proposal statuses.
const (
	ProposalDraft    Status = "DRAFT"
	ProposalSent     Status = "SENT"
	ProposalViewed   Status = "VIEWED"
	ProposalAccepted Status = "ACCEPTED"
	ProposalRejected Status = "REJECTED"
)

// Booking statuses.
const (
	BookingPending   Status = "PENDING"
	BookingConfirmed Status = "CONFIRMED"
	BookingPaid      Status = "PAID"
	BookingCompleted Status = "COMPLETED"
	BookingCancelled Status = "CANCELLED"
)

// Ticket statuses.
const (
	TicketOpen       Status = "OPEN"
	TicketInProgress Status = "IN_PROGRESS"
	TicketResolved   Status = "RESOLVED"
)

// Invitation code statuses. Expiry is derived from time, not stored.
const (
	CodeActive Status = "ACTIVE"
	CodeUsed   Status = "USED"
)

var (
	// Inquiry moves NEW -> QUALIFIED -> CONVERTED, and can be disqualified
	// with a reason until it is converted.
	Inquiry = newMachine(KindInquiry, InquiryNew,
		[]Status{InquiryDisqualified, InquiryConverted},
		map[Action]edge{
			ActionQualify:    {from: []Status{InquiryNew}, to: InquiryQualified},
			ActionDisqualify: {from: []Status{InquiryNew, InquiryQualified}, to: InquiryDisqualified, stamp: StampDisqualifiedAt, requires: needsReason},
			ActionConvert:    {from: []Status{InquiryQualified}, to: InquiryConverted, stamp: StampConvertedAt},
		})

	// Proposal moves DRAFT -> SENT -> VIEWED and is then accepted or
	// rejected. A sent proposal may be decided without being viewed.
	Proposal = newMachine(KindProposal, ProposalDraft,
		[]Status{ProposalAccepted, ProposalRejected},
		map[Action]edge{
			ActionSend:   {from: []Status{ProposalDraft}, to: ProposalSent, stamp: StampSentAt},
			ActionView:   {from: []Status{ProposalSent}, to: ProposalViewed, stamp: StampViewedAt},
			ActionAccept: {from: []Status{ProposalSent, ProposalViewed}, to: ProposalAccepted, stamp: StampAcceptedAt},
			ActionReject: {from: []Status{ProposalSent, ProposalViewed}, to: ProposalRejected, stamp: StampRejectedAt},
		})

	Booking = newMachine(KindBooking, BookingPending,
		[]Status{BookingCompleted, BookingCancelled},
		map[Action]edge{
			ActionConfirm:  {from: []Status{BookingPending}, to: BookingConfirmed, stamp: StampConfirmedAt},
			ActionMarkPaid: {from: []Status{BookingConfirmed}, to: BookingPaid, stamp: StampPaidAt},
			ActionComplete: {from: []Status{BookingConfirmed, BookingPaid}, to: BookingCompleted, stamp: StampCompletedAt},
			ActionCancel:   {from: []Status{BookingPending, BookingConfirmed, BookingPaid}, to: BookingCancelled, stamp: StampCancelledAt},
		})

	Ticket = newMachine(KindTicket, TicketOpen,
		[]Status{TicketResolved},
		map[Action]edge{
			ActionStart:   {from: []Status{TicketOpen}, to: TicketInProgress},
			ActionAssign:  {from: []Status{TicketOpen}, to: TicketInProgress},
			ActionResolve: {from: []Status{TicketOpen, TicketInProgress}, to: TicketResolved, stamp: StampResolvedAt},
		})

	InvitationCode = newMachine(KindInvitationCode, CodeActive,
		[]Status{CodeUsed},
		map[Action]edge{
			ActionRedeem: {from: []Status{CodeActive}, to: CodeUsed, stamp: StampUsedAt, requires: needsActor},
		})
)

// ForKind returns the machine for k, or nil when k has no lifecycle.
func ForKind(k Kind) *Machine {
	switch k {
	case KindInquiry:
		return Inquiry
	case KindProposal:
		return Proposal
	case KindBooking:
		return Booking
	case KindTicket:
		return Ticket
	case KindInvitationCode:
		return InvitationCode
	default:
		return nil
	}
}

func newMachine(kind Kind, initial Status, terminal []Status, edges map[Action]edge) *Machine {
	m := &Machine{
		kind:     kind,
		initial:  initial,
		statuses: map[Status]struct{}{initial: {}},
		terminal: make(map[Status]struct{}, len(terminal)),
		edges:    edges,
	}
	for _, s := range terminal {
		m.terminal[s] = struct{}{}
		m.statuses[s] = struct{}{}
	}
	for _, e := range edges {
		m.statuses[e.to] = struct{}{}
		for _, s := range e.from {
			m.statuses[s] = struct{}{}
		}
	}
	return m
}
