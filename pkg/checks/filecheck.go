package checks

import (
	"fmt"
	"os"
)

// Compile-time checks to ensure the types implement the interface
var (
	_ Check = (*ForbiddenFileCheck)(nil)
	_ Check = (*RequiredFileCheck)(nil)
)

// ForbiddenFileCheck fails while the path exists. It is unprivileged,
// and tests the presence of a file.
type ForbiddenFileCheck struct {
	Path string
}

// NewForbiddenFileCheck is the constructor for the forbidden-file check.
func NewForbiddenFileCheck(path string) *ForbiddenFileCheck {
	return &ForbiddenFileCheck{Path: path}
}

// Kind returns KindForbiddenFile.
func (c ForbiddenFileCheck) Kind() Kind { return KindForbiddenFile }

func (c ForbiddenFileCheck) String() string {
	return fmt.Sprintf("forbidden file %s", c.Path)
}

// Failing checks the file presence.
func (c ForbiddenFileCheck) Failing() (bool, error) {
	_, err := os.Stat(c.Path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// RequiredFileCheck fails while the path is missing.
type RequiredFileCheck struct {
	Path string
}

// NewRequiredFileCheck is the constructor for the required-file check.
func NewRequiredFileCheck(path string) *RequiredFileCheck {
	return &RequiredFileCheck{Path: path}
}

// Kind returns KindRequiredFile.
func (c RequiredFileCheck) Kind() Kind { return KindRequiredFile }

func (c RequiredFileCheck) String() string {
	return fmt.Sprintf("required file %s", c.Path)
}

// Failing checks the file absence.
func (c RequiredFileCheck) Failing() (bool, error) {
	_, err := os.Stat(c.Path)
	if err == nil {
		return false, nil
	}
	if os.IsNotExist(err) {
		return true, nil
	}
	return false, err
}
