// Package notifications delivers guard transition messages to operator
// channels via shoutrrr URLs.
package notifications

import (
	"errors"
	"strings"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/router"
	"github.com/containrrr/shoutrrr/pkg/types"
	log "github.com/sirupsen/logrus"
)

// Notifier sends a message with a title. Implementations must be safe to
// call from the daemon loop on every guard transition.
type Notifier interface {
	Send(message string, title string) error
}

// NoopNotifier is used when no notify URL is configured.
type NoopNotifier struct{}

// Send does nothing.
func (nn *NoopNotifier) Send(_ string, _ string) error {
	return nil
}

// ShoutrrrNotifier fans a message out to one or more shoutrrr service URLs.
type ShoutrrrNotifier struct {
	serviceRouter *router.ServiceRouter
}

// Send delivers the message to every configured service.
func (sn *ShoutrrrNotifier) Send(message string, title string) error {
	params := &types.Params{}
	params.SetTitle(title)
	errs := sn.serviceRouter.Send(message, params)
	var errList error
	if errs != nil {
		for _, err := range errs {
			errList = errors.Join(errList, err)
		}
		return errList
	}
	return nil
}

// NewNotifier builds a notifier for the given comma-separated shoutrrr URLs.
// An empty URL yields a NoopNotifier, as does a URL shoutrrr rejects.
func NewNotifier(notifyURL string) Notifier {
	url := stripQuotes(notifyURL)
	if url == "" {
		return &NoopNotifier{}
	}
	servicesURLs := strings.Split(url, ",")
	sr, err := shoutrrr.CreateSender(servicesURLs...)
	if err != nil {
		log.Infof("Could not create notifier for %s, will not notify: %v", url, err)
		return &NoopNotifier{}
	}
	return &ShoutrrrNotifier{serviceRouter: sr}
}

// stripQuotes removes any literal single or double quote chars that surround a string
func stripQuotes(str string) string {
	if len(str) > 2 {
		firstChar := str[0]
		lastChar := str[len(str)-1]
		if firstChar == lastChar && (firstChar == '"' || firstChar == '\'') {
			return str[1 : len(str)-1]
		}
	}
	// return the original string if it has a length of zero or one
	return str
}
