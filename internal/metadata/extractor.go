package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"songdeck/pkg/models"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/mewkiz/flac"
	"github.com/sirupsen/logrus"
	"github.com/tcolgate/mp3"
)

// Extractor reads tags and probes durations of audio files
type Extractor struct {
	extensions []string
	logger     *logrus.Logger
}

// NewExtractor creates a new metadata extractor for the given extensions
func NewExtractor(extensions []string, logger *logrus.Logger) *Extractor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	lowered := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		lowered = append(lowered, strings.ToLower(ext))
	}
	return &Extractor{
		extensions: lowered,
		logger:     logger,
	}
}

// ReadTrackInfo describes the file at filePath for a track list row. Tag or
// duration failures are logged and leave the corresponding fields empty.
func (e *Extractor) ReadTrackInfo(filePath string) models.TrackInfo {
	info := models.TrackInfo{Name: filepath.Base(filePath)}

	if d, err := e.ProbeDuration(filePath); err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Debug("Failed to probe duration")
	} else {
		info.Duration = d.Seconds()
	}

	file, err := os.Open(filePath)
	if err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Warn("Failed to open audio file")
		return info
	}
	defer file.Close()

	m, err := tag.ReadFrom(file)
	if err != nil {
		e.logger.WithError(err).WithField("file_path", filePath).Debug("No readable tags, using file name")
		return info
	}
	info.Title = m.Title()
	info.Artist = m.Artist()
	return info
}

// ProbeDuration calculates the duration of an audio file
func (e *Extractor) ProbeDuration(filePath string) (time.Duration, error) {
	startTime := time.Now()

	var d time.Duration
	var err error
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		d, err = e.durationMP3(filePath)
	case ".flac":
		d, err = e.durationFLAC(filePath)
	case ".wav":
		d, err = e.durationWAV(filePath)
	default:
		return 0, fmt.Errorf("unsupported format: %s", filepath.Ext(filePath))
	}
	if err != nil {
		return 0, err
	}

	e.logger.WithFields(logrus.Fields{
		"file_path":       filePath,
		"duration":        d,
		"processing_time": time.Since(startTime),
	}).Debug("Probed duration")
	return d, nil
}

// durationMP3 sums frame durations; falls back to a bitrate estimate only if
// no frame decodes at all.
func (e *Extractor) durationMP3(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := mp3.NewDecoder(f)
	var total time.Duration
	var skipped int
	frames := 0
	for {
		var fr mp3.Frame
		if err := dec.Decode(&fr, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			if frames == 0 {
				return estimateFromFileSize(f, 192000) // assume 192 kbps
			}
			break // partial decode; use what we have
		}
		total += fr.Duration()
		frames++
	}
	if frames == 0 {
		return 0, fmt.Errorf("no mp3 frames in %s", filepath.Base(path))
	}
	return total, nil
}

// durationFLAC reads the STREAMINFO block
func (e *Extractor) durationFLAC(path string) (time.Duration, error) {
	stream, err := flac.ParseFile(path)
	if err != nil {
		return 0, err
	}
	defer stream.Close()

	si := stream.Info
	if si.NSamples == 0 || si.SampleRate == 0 {
		return 0, fmt.Errorf("flac stream missing sample info")
	}
	secs := float64(si.NSamples) / float64(si.SampleRate)
	return time.Duration(secs * float64(time.Second)), nil
}

// durationWAV reads the header through go-audio/wav
func (e *Extractor) durationWAV(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file")
	}
	return dec.Duration()
}

// estimateFromFileSize is the last-resort estimate for undecodable files
func estimateFromFileSize(f *os.File, bitrate int64) (time.Duration, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if bitrate <= 0 {
		return 0, fmt.Errorf("invalid bitrate")
	}
	secs := float64(st.Size()*8) / float64(bitrate)
	return time.Duration(secs * float64(time.Second)), nil
}

// IsAudioFile checks the extension against the configured audio extensions
func (e *Extractor) IsAudioFile(filePath string) bool {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return false
	}
	for _, candidate := range e.extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// GetContentType returns the MIME type for an audio file
func (e *Extractor) GetContentType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3":
		return "audio/mpeg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".m4a":
		return "audio/mp4"
	case ".ogg":
		return "audio/ogg"
	default:
		return "application/octet-stream"
	}
}
