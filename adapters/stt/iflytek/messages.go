package iflytek

import "strings"

// Outbound frames.

type frameRequest struct {
	Common   *commonParams   `json:"common,omitempty"`
	Business *businessParams `json:"business,omitempty"`
	Data     frameData       `json:"data"`
}

type commonParams struct {
	AppID string `json:"app_id"`
}

type businessParams struct {
	Language string `json:"language"`
	Domain   string `json:"domain"`
	Accent   string `json:"accent"`
	VadEOS   int    `json:"vad_eos"`
	DWA      string `json:"dwa"`
	PTT      int    `json:"ptt"`
}

type frameData struct {
	Status   FrameStatus `json:"status"`
	Format   string      `json:"format,omitempty"`
	Encoding string      `json:"encoding,omitempty"`
	Audio    string      `json:"audio,omitempty"`
}

// terminalRequest tells the recognizer no more audio follows.
var terminalRequest = frameRequest{Data: frameData{Status: StatusLastFrame}}

// Inbound messages.

// Response is a single message pushed by the recognizer.
type Response struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	SID     string        `json:"sid,omitempty"`
	Data    *ResponseData `json:"data,omitempty"`
}

type ResponseData struct {
	Status int     `json:"status"`
	Result *Result `json:"result,omitempty"`
}

// Result is one recognition segment. SN is its sequence number; PGS "rpl"
// together with RG asks to drop an inclusive range of earlier segments.
type Result struct {
	WS  []WordGroup `json:"ws,omitempty"`
	SN  *int        `json:"sn,omitempty"`
	PGS string      `json:"pgs,omitempty"`
	RG  []int       `json:"rg,omitempty"`
	LS  bool        `json:"ls,omitempty"`
}

type WordGroup struct {
	CW []Candidate `json:"cw"`
}

type Candidate struct {
	W string `json:"w"`
}

// Text concatenates every word of every candidate, without separators.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	var b strings.Builder
	for _, group := range r.WS {
		for _, c := range group.CW {
			b.WriteString(c.W)
		}
	}
	return b.String()
}

// final reports whether the message signals the end of recognition.
func (r *Response) final() bool {
	if r.Data == nil {
		return false
	}
	if r.Data.Status == int(StatusLastFrame) {
		return true
	}
	return r.Data.Result != nil && r.Data.Result.LS
}
