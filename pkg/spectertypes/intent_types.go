package spectertypes

// IntentKind distinguishes a capability call from generic conversation.
type IntentKind int

const (
	// IntentChat means the command is generic conversation.
	IntentChat IntentKind = iota
	// IntentFunctionCall means the command names a capability function.
	IntentFunctionCall
)

// String returns a readable name for logging.
func (k IntentKind) String() string {
	if k == IntentFunctionCall {
		return "function_call"
	}
	return "chat"
}

// Intent is the classified meaning of one command. It is never persisted.
type Intent struct {
	Kind     IntentKind
	Function string            // raw function name as returned by the classifier
	Reason   string            // classifier's REASON line, if any
	Reply    string            // classifier's CHAT text, if any
	Params   map[string]string // extracted parameters (recipient, subject, ...)
}

// ChatIntent builds a chat intent.
func ChatIntent(reply string) Intent {
	return Intent{Kind: IntentChat, Reply: reply}
}

// FunctionCallIntent builds a function-call intent.
func FunctionCallIntent(name, reason string, params map[string]string) Intent {
	return Intent{Kind: IntentFunctionCall, Function: name, Reason: reason, Params: params}
}

// IsFunctionCall reports whether the intent names a capability function.
func (i Intent) IsFunctionCall() bool {
	return i.Kind == IntentFunctionCall
}
