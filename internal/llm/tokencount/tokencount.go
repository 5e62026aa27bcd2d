// Package tokencount estimates prompt sizes before a document is sent to the model.
package tokencount

import (
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// cl100k_base is close enough for every chat model we target and ships with
// the offline loader.
const encodingName = "cl100k_base"

// Per-message framing used by the chat completion format.
const (
	tokensPerMessage = 3
	tokensPerReply   = 3
)

var (
	loadOnce sync.Once
	enc      *tiktoken.Tiktoken
	encErr   error
)

func encoding() (*tiktoken.Tiktoken, error) {
	loadOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		enc, encErr = tiktoken.GetEncoding(encodingName)
	})
	return enc, encErr
}

// Count returns the number of tokens in text.
func Count(text string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(e.Encode(text, nil, nil)), nil
}

// CountChat estimates the prompt tokens of a system+user chat request.
func CountChat(system, user string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	n := tokensPerReply
	for _, m := range [][2]string{{"system", system}, {"user", user}} {
		n += tokensPerMessage
		n += len(e.Encode(m[0], nil, nil))
		n += len(e.Encode(m[1], nil, nil))
	}
	return n, nil
}

// Estimate is the fallback when the encoding cannot be loaded: about four
// bytes per token.
func Estimate(system, user string) int {
	return (len(system) + len(user)) / 4
}
