// Package transcript resolves a spoken answer to one of a question's options.
//
// The speech-to-text engine is a black box: this package only sees the
// transcript it produced.
package transcript

import "strings"

// optionLetters maps option positions to the letters a learner says aloud.
var optionLetters = []string{"a", "b", "c", "d", "e"}

// Match returns the option the transcript refers to.
//
// An explicit "option B" or "answer B" wins first, scanned in option order.
// Otherwise the first option that contains the transcript, or is contained
// by it, is chosen (case-insensitive). Blank transcripts match nothing.
func Match(transcript string, options []string) (string, bool) {
	heard := strings.ToLower(strings.TrimSpace(transcript))
	if heard == "" {
		return "", false
	}

	for i, opt := range options {
		if i >= len(optionLetters) {
			break
		}
		l := optionLetters[i]
		if strings.Contains(heard, "option "+l) || strings.Contains(heard, "answer "+l) {
			return opt, true
		}
	}

	for _, opt := range options {
		o := strings.ToLower(opt)
		if o == "" {
			continue
		}
		if strings.Contains(o, heard) || strings.Contains(heard, o) {
			return opt, true
		}
	}

	return "", false
}
