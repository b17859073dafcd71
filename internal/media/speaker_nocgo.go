//go:build !cgo

package media

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// AudioAvailable indicates whether audio output is supported in this build.
// Audio requires cgo for the native sound libraries.
const AudioAvailable = false

// ErrAudioUnavailable is returned when the binary was built without cgo
var ErrAudioUnavailable = errors.New("audio output requires a cgo build")

// NewSpeaker always fails in builds without cgo; use a Clock instead.
func NewSpeaker(root string, interval time.Duration, logger *logrus.Logger) (Handle, error) {
	return nil, ErrAudioUnavailable
}
