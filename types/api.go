package types

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status    int   `json:"status"`
	TimeStamp int64 `json:"timestamp"`
}

type ControlResponse struct {
	ID    int     `json:"id"`
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

type PendingEditResponse struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

type StateResponse struct {
	ZDim     int                  `json:"zDim"`
	Controls []ControlResponse    `json:"controls"`
	Pending  *PendingEditResponse `json:"pending,omitempty"`
}

type BindRequest struct {
	// Index is the raw feature field, a JSON number or a string.
	Index FieldText `json:"index"`
}

type InputRequest struct {
	Value *float64 `json:"value"`
}

type StepRequest struct {
	Delta float64 `json:"delta"`
}

type SampleRequest struct {
	NoiseMode string `json:"noiseMode"`
}

type RegenerateResponse struct {
	Status string `json:"status"`
}

// WSEvent is pushed to every connected client.
type WSEvent struct {
	Type      string           `json:"type"` // frame, control, validation, state, error
	Control   *ControlResponse `json:"control,omitempty"`
	State     *StateResponse   `json:"state,omitempty"`
	ControlID *int             `json:"controlId,omitempty"`
	Message   string           `json:"message,omitempty"`
	Image     string           `json:"image,omitempty"` // base64
	MimeType  string           `json:"mimeType,omitempty"`
	Width     int              `json:"width,omitempty"`
	Height    int              `json:"height,omitempty"`
}

// WSCommand is what a client sends over the socket.
type WSCommand struct {
	Type    string    `json:"type"` // input, increment, decrement, bind, reset, regenerate
	Control *int      `json:"control"`
	Value   *float64  `json:"value"`
	Delta   float64   `json:"delta"`
	Index   FieldText `json:"index"`
}
