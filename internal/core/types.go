package core

const (
	AppName    = "polychat"
	AppVersion = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Kind identifies the payload type of a stored message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
)

// Message is one turn in the wire format shared by all chat providers.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StoredMessage is a persisted conversation turn. ID is the sequence number
// within the session: assigned by the store, monotonically increasing.
type StoredMessage struct {
	ID        int64
	SessionID string
	Sender    Sender
	Kind      Kind
	Text      string
	Blob      []byte
}

// Chunk is a bounded substring of an ingested document, the unit of
// indexing and retrieval. Embeddings stay inside the index and are never
// carried on this struct.
type Chunk struct {
	ID        int64
	Text      string
	TokenSize int
}

// Model describes one model available on a backend.
type Model struct {
	ID   string
	Name string
}
