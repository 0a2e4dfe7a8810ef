package bridge

type MessageType string

const (
	MessageKeyDown    MessageType = "KeyDown"
	MessageCodeChange MessageType = "CodeChange"
	MessageReady      MessageType = "Ready"
	MessageError      MessageType = "Error"
	MessageResponse   MessageType = "Response"
)

// Message is any record posted to the host. Every record serializes with a
// MessageType discriminator.
type Message interface {
	Type() MessageType
}

// KeyEvent is an unhandled key-down as seen by the outermost container.
type KeyEvent struct {
	AltKey   bool   `json:"AltKey"`
	CtrlKey  bool   `json:"CtrlKey"`
	ShiftKey bool   `json:"ShiftKey"`
	Code     string `json:"Code"`
	Key      string `json:"Key"`
}

type KeyDownMessage struct {
	MessageType MessageType `json:"MessageType"`
	KeyEvent
}

func (KeyDownMessage) Type() MessageType { return MessageKeyDown }

type CodeChangeMessage struct {
	MessageType MessageType `json:"MessageType"`
}

func (CodeChangeMessage) Type() MessageType { return MessageCodeChange }

type ReadyMessage struct {
	MessageType MessageType `json:"MessageType"`
	SessionID   string      `json:"SessionId"`
	Version     string      `json:"Version"`
}

func (ReadyMessage) Type() MessageType { return MessageReady }

// ErrorMessage reports a failure the host could not otherwise observe,
// such as a setter receiving input it cannot decode.
type ErrorMessage struct {
	MessageType MessageType `json:"MessageType"`
	Code        string      `json:"Code"`
	Operation   string      `json:"Operation,omitempty"`
	SessionID   string      `json:"SessionId,omitempty"`
	Detail      string      `json:"Detail,omitempty"`
}

func (ErrorMessage) Type() MessageType { return MessageError }

// ResponseMessage answers a host request.
type ResponseMessage struct {
	MessageType MessageType `json:"MessageType"`
	ID          string      `json:"Id"`
	Result      any         `json:"Result,omitempty"`
	Error       string      `json:"Error,omitempty"`
}

func (ResponseMessage) Type() MessageType { return MessageResponse }

func NewKeyDown(ev KeyEvent) KeyDownMessage {
	return KeyDownMessage{MessageType: MessageKeyDown, KeyEvent: ev}
}

func NewCodeChange() CodeChangeMessage {
	return CodeChangeMessage{MessageType: MessageCodeChange}
}

func NewReady(sessionID, version string) ReadyMessage {
	return ReadyMessage{MessageType: MessageReady, SessionID: sessionID, Version: version}
}

func NewError(code, operation, sessionID, detail string) ErrorMessage {
	return ErrorMessage{
		MessageType: MessageError,
		Code:        code,
		Operation:   operation,
		SessionID:   sessionID,
		Detail:      detail,
	}
}

func NewResponse(id string, result any, err error) ResponseMessage {
	resp := ResponseMessage{MessageType: MessageResponse, ID: id, Result: result}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}
