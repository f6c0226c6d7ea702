package site

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/use-agent/jobscout/models"
)

var constructors = map[string]func(country string, log *slog.Logger) Adapter{
	"linkedin": func(_ string, log *slog.Logger) Adapter { return NewLinkedIn(log) },
	"indeed": func(country string, log *slog.Logger) Adapter {
		c, ok := ParseCountry(country)
		if !ok && country != "" && log != nil {
			log.Warn("unknown indeed country, using default", "country", country, "default", string(DefaultCountry))
		}
		return NewIndeed(c, log)
	},
}

// New builds the adapter registered under name. country only matters for
// boards with regional sites.
func New(name, country string, log *slog.Logger) (Adapter, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("unknown site %q (supported: %s)", name, strings.Join(Names(), ", ")), nil)
	}
	if log == nil {
		log = slog.Default()
	}
	return ctor(country, log), nil
}

// Names lists the registered sites in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
