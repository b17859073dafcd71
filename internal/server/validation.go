package server

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult contains validation results
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// respondWithValidationError sends a structured validation error response
func (ms *MusicServer) respondWithValidationError(w http.ResponseWriter, r *http.Request, errors []ValidationError) {
	ms.logger.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"errors": errors,
	}).Warn("Validation failed")

	ms.respondJSON(w, http.StatusBadRequest, ValidationResult{
		Valid:  false,
		Errors: errors,
	})
}

// respondWithError sends a structured error response
func (ms *MusicServer) respondWithError(w http.ResponseWriter, r *http.Request, statusCode int, message string, err error) {
	logEntry := ms.logger.WithFields(logrus.Fields{
		"method":      r.Method,
		"path":        r.URL.Path,
		"status_code": statusCode,
		"message":     message,
	})

	if err != nil {
		logEntry = logEntry.WithError(err)
	}

	if statusCode >= 500 {
		logEntry.Error("Server error")
	} else {
		logEntry.Warn("Client error")
	}

	ms.respondJSON(w, statusCode, map[string]interface{}{
		"error":   message,
		"code":    statusCode,
		"success": false,
	})
}

// respondJSON writes v as a JSON body with the given status
func (ms *MusicServer) respondJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		ms.logger.WithError(err).Warn("Failed to encode JSON response")
	}
}

// validateFolder checks a library-relative folder such as "songs/ncs"
func (ms *MusicServer) validateFolder(folder string) *ValidationError {
	if folder == "" {
		return &ValidationError{
			Field:   "folder",
			Message: "Folder is required",
			Code:    "MISSING_FOLDER",
		}
	}

	if len(folder) > 1024 || strings.ContainsAny(folder, "\x00\r\n") {
		return &ValidationError{
			Field:   "folder",
			Message: "Folder contains invalid characters",
			Code:    "INVALID_FOLDER",
		}
	}

	for _, segment := range strings.Split(folder, "/") {
		if segment == ".." {
			return &ValidationError{
				Field:   "folder",
				Message: "Folder path outside allowed directory",
				Code:    "PATH_TRAVERSAL_DENIED",
			}
		}
	}

	return nil
}

// validateName checks a single path segment such as an album or track name
func (ms *MusicServer) validateName(field, name string) *ValidationError {
	code := strings.ToUpper(field)
	if name == "" {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s name is required", field),
			Code:    "MISSING_" + code,
		}
	}

	if len(name) > 255 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s name too long (max 255 characters)", field),
			Code:    code + "_NAME_TOO_LONG",
		}
	}

	if name == "." || name == ".." || strings.ContainsAny(name, "/\\\x00\r\n") {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s name contains invalid characters", field),
			Code:    "INVALID_" + code + "_CHARACTERS",
		}
	}

	return nil
}

// validateFraction checks a seek position in [0,1]
func (ms *MusicServer) validateFraction(fraction *float64) *ValidationError {
	if fraction == nil {
		return &ValidationError{
			Field:   "fraction",
			Message: "Seek fraction is required",
			Code:    "MISSING_FRACTION",
		}
	}

	if math.IsNaN(*fraction) || *fraction < 0 || *fraction > 1 {
		return &ValidationError{
			Field:   "fraction",
			Message: "Seek fraction must be between 0 and 1",
			Code:    "INVALID_FRACTION",
		}
	}

	return nil
}

// validateVolume checks a volume level in [0,1]
func (ms *MusicServer) validateVolume(volume *float64) *ValidationError {
	if volume == nil {
		return &ValidationError{
			Field:   "volume",
			Message: "Volume is required",
			Code:    "MISSING_VOLUME",
		}
	}

	if math.IsNaN(*volume) || *volume < 0 || *volume > 1 {
		return &ValidationError{
			Field:   "volume",
			Message: "Volume must be between 0 and 1",
			Code:    "INVALID_VOLUME",
		}
	}

	return nil
}

// libraryFile maps a request path below the library onto the filesystem
// and ensures the result stays inside the library directory
func (ms *MusicServer) libraryFile(urlPath string) (string, *ValidationError) {
	clean := path.Clean("/" + urlPath)
	filePath := filepath.Join(ms.config.Library.Path, filepath.FromSlash(clean))

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", &ValidationError{
			Field:   "file_path",
			Message: "Invalid file path",
			Code:    "INVALID_FILE_PATH",
		}
	}

	absLibrary, err := filepath.Abs(ms.config.Library.Path)
	if err != nil {
		return "", &ValidationError{
			Field:   "file_path",
			Message: "Server configuration error",
			Code:    "CONFIG_ERROR",
		}
	}

	relPath, err := filepath.Rel(absLibrary, absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", &ValidationError{
			Field:   "file_path",
			Message: "File path outside allowed directory",
			Code:    "PATH_TRAVERSAL_DENIED",
		}
	}

	return absPath, nil
}

// sanitizeInput sanitizes user input to prevent injection attacks
func sanitizeInput(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
