package domain

// EventType categorizes what the boundary feeds into the router.
type EventType string

const (
	// EventStart opens a conversation for a session identifier.
	EventStart EventType = "start"
	// EventMessage carries free text from the user.
	EventMessage EventType = "message"
	// EventContinue is the synthetic event the driver uses to chain
	// non-suspending steps without new external input.
	EventContinue EventType = "continue"
)

// Event is one input to the router.
type Event struct {
	Type EventType `json:"type"`
	Text string    `json:"text,omitempty"`
}

// StartEvent returns the conversation-opening event.
func StartEvent() Event { return Event{Type: EventStart} }

// MessageEvent wraps user text.
func MessageEvent(text string) Event { return Event{Type: EventMessage, Text: text} }

// ContinueEvent returns the synthetic chaining event.
func ContinueEvent() Event { return Event{Type: EventContinue} }

// Step identifies a unit of work the router can select.
type Step string

const (
	StepInit          Step = "init"
	StepAsk           Step = "ask"
	StepProcessAnswer Step = "process_answer"
	StepConfirmShow   Step = "confirm_show"
	StepConfirmParse  Step = "confirm_parse"
	StepGenerate      Step = "generate"
	StepFinalize      Step = "finalize"
	StepTerminal      Step = "terminal"
)

// ActionRequest represents something the host should render or do.
type ActionRequest struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Standard action types.
const (
	// ActionSay requests the host to display a message.
	// Payload: string.
	ActionSay = "SAY"

	// ActionAwaitInput marks that the workflow suspended and needs the
	// next user message. Payload: InputRequest.
	ActionAwaitInput = "AWAIT_INPUT"

	// ActionWarn surfaces a non-fatal condition (e.g. a record-store
	// failure after completion). Payload: string.
	ActionWarn = "WARN"
)

// InputKind describes what kind of reply is expected.
type InputKind string

const (
	InputAnswer       InputKind = "answer"
	InputConfirmation InputKind = "confirmation"
)

// InputRequest describes the suspension point to the host.
type InputRequest struct {
	Kind InputKind `json:"kind"`
	// Field is set for InputAnswer: the field being collected.
	Field string `json:"field,omitempty"`
}

// Say builds a render action.
func Say(msg string) ActionRequest { return ActionRequest{Type: ActionSay, Payload: msg} }

// Warn builds a warning action.
func Warn(msg string) ActionRequest { return ActionRequest{Type: ActionWarn, Payload: msg} }

// AwaitInput builds a suspension action.
func AwaitInput(req InputRequest) ActionRequest {
	return ActionRequest{Type: ActionAwaitInput, Payload: req}
}
