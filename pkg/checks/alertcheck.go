package checks

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	papi "github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	log "github.com/sirupsen/logrus"
)

// Compile-time check to ensure the type implements the interface
var _ Check = (*ActiveAlertCheck)(nil)

// ActiveAlertCheck fails while matching active alerts exist on a Prometheus
// instance. It is always evaluated last, after every built-in check kind.
type ActiveAlertCheck struct {
	promConfig papi.Config
	// regexp used to filter alerts
	filter *regexp.Regexp
	// bool to indicate if only firing alerts should be considered
	firingOnly bool
	// bool to indicate that we're only failing on alerts which match the filter
	filterMatchOnly bool
	// storing the promClient
	promClient papi.Client
}

// NewActiveAlertCheck creates a new ActiveAlertCheck using the given
// Prometheus API config, alert filter, and filtering options.
func NewActiveAlertCheck(config papi.Config, alertFilter *regexp.Regexp, firingOnly bool, filterMatchOnly bool) *ActiveAlertCheck {
	promClient, _ := papi.NewClient(config)

	return &ActiveAlertCheck{
		promConfig:      config,
		filter:          alertFilter,
		firingOnly:      firingOnly,
		filterMatchOnly: filterMatchOnly,
		promClient:      promClient,
	}
}

// Kind returns KindActiveAlert.
func (c ActiveAlertCheck) Kind() Kind { return KindActiveAlert }

func (c ActiveAlertCheck) String() string {
	return fmt.Sprintf("active alerts on %s", c.promConfig.Address)
}

// Failing checks for active alerts matching the configured filter. A query
// error is returned to the engine, which counts it as a failed condition.
func (c ActiveAlertCheck) Failing() (bool, error) {
	alertNames, err := c.ActiveAlerts()
	if err != nil {
		return false, fmt.Errorf("prometheus query error: %v", err)
	}
	count := len(alertNames)
	if count > 10 {
		alertNames = append(alertNames[:10], "...")
	}
	if count > 0 {
		log.Infof("Shutdown blocked: %d active alerts: %v", count, alertNames)
		return true, nil
	}
	return false, nil
}

// ActiveAlerts returns the names of active alerts (e.g. pending or firing),
// filtered by the supplied regexp. Filtering by regexp means when the regexp
// finds the alert-name, the alert is excluded from the block-list and will
// NOT block shutdown, unless filterMatchOnly inverts that to an include-list.
func (c ActiveAlertCheck) ActiveAlerts() ([]string, error) {
	api := v1.NewAPI(c.promClient)

	// get all alerts from prometheus
	value, _, err := api.Query(context.Background(), "ALERTS", time.Now())
	if err != nil {
		return nil, err
	}

	if value.Type() == model.ValVector {
		if vector, ok := value.(model.Vector); ok {
			activeAlertSet := make(map[string]bool)
			for _, sample := range vector {
				if alertName, isAlert := sample.Metric[model.AlertNameLabel]; isAlert && sample.Value != 0 {
					if matchesRegex(c.filter, string(alertName), c.filterMatchOnly) && (!c.firingOnly || sample.Metric["alertstate"] == "firing") {
						activeAlertSet[string(alertName)] = true
					}
				}
			}

			var activeAlerts []string
			for activeAlert := range activeAlertSet {
				activeAlerts = append(activeAlerts, activeAlert)
			}
			sort.Strings(activeAlerts)

			return activeAlerts, nil
		}
	}

	return nil, fmt.Errorf("unexpected value type %v", value)
}

func matchesRegex(filter *regexp.Regexp, alertName string, filterMatchOnly bool) bool {
	if filter == nil {
		return true
	}

	return filter.MatchString(alertName) == filterMatchOnly
}
