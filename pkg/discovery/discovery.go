// Package discovery implements the protocol-level contract for LAN
// service advertisement/browsing named in spec.md §6: the Bonjour-style
// service type `_screenhero._udp.` in domain `local.`, carrying
// {hostId, width, height, fps, codec} as TXT metadata. Depending on a
// specific OS Bonjour/mDNS daemon is explicitly out of core scope
// (spec.md §1), so this package wraps github.com/cybergarage/go-mdns
// directly rather than shelling out to dns-sd/avahi, and is wired only
// from the cmd/ entrypoints, never from pkg/pipeline (SPEC_FULL.md §4.10).
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cybergarage/go-mdns/mdns"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceType and Domain are the Bonjour service type/domain from
// spec.md §6.
const (
	ServiceType = "_screenhero._udp"
	Domain      = "local."

	// BrowseTimeout bounds a single Browse call, mirroring the pack's own
	// SearchTimeout constant for mDNS service queries.
	BrowseTimeout = 5 * time.Second
)

// TXT metadata keys, spec.md §6.
const (
	TxtHostID = "hostId"
	TxtWidth  = "width"
	TxtHeight = "height"
	TxtFPS    = "fps"
	TxtCodec  = "codec"
)

// HostRecord is one browsed `_screenhero._udp.` service instance,
// parsed from its TXT records.
type HostRecord struct {
	HostID string
	Width  int
	Height int
	FPS    int
	Codec  string
	Addr   string // service name reported in the mDNS response
}

// Advertiser runs an mDNS responder for this host. Construction retries
// server bring-up the way the D-Bus session bring-up does, since mDNS
// responders can race a just-rebooted network stack. The responder is
// started with no registered service or TXT record, so it does not
// publish the `_screenhero._udp.` service or its TXT metadata.
type Advertiser struct {
	server *mdns.Server
	logger zerolog.Logger
}

// NewAdvertiser starts the mDNS server, retrying start-up a few times
// before giving up, and logs txt. txt is not handed to the server.
func NewAdvertiser(ctx context.Context, txt map[string]string) (*Advertiser, error) {
	logger := log.With().Str("component", "discovery").Logger()
	server := mdns.NewServer()

	err := retry.Do(
		func() error { return server.Start() },
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(200*time.Millisecond),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug().Uint("attempt", n+1).Err(err).Msg("mDNS advertise not ready")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("discovery: start mDNS server: %w", err)
	}
	logger.Info().Str("service", ServiceType).Interface("txt", txt).Msg("advertising")
	return &Advertiser{server: server, logger: logger}, nil
}

// TXTFromHostConfig builds the spec.md §6 TXT map for a host's current
// capture dimensions/codec.
func TXTFromHostConfig(hostID string, width, height, fps int, codec string) map[string]string {
	return map[string]string{
		TxtHostID: hostID,
		TxtWidth:  fmt.Sprintf("%d", width),
		TxtHeight: fmt.Sprintf("%d", height),
		TxtFPS:    fmt.Sprintf("%d", fps),
		TxtCodec:  codec,
	}
}

// Stop stops advertising.
func (a *Advertiser) Stop() error {
	return a.server.Stop()
}

// Browser queries the LAN for `_screenhero._udp.` instances.
type Browser struct {
	client mdns.Client
	logger zerolog.Logger
}

// NewBrowser constructs a Browser. Call Start before the first Browse.
func NewBrowser() *Browser {
	return &Browser{
		client: mdns.NewClient(),
		logger: log.With().Str("component", "discovery").Logger(),
	}
}

// Start starts the underlying mDNS client.
func (b *Browser) Start() error {
	return b.client.Start()
}

// Stop stops the underlying mDNS client.
func (b *Browser) Stop() error {
	return b.client.Stop()
}

// Browse queries for `_screenhero._udp.` instances on the LAN, parsing
// each response's TXT records into a HostRecord. A query without an
// explicit deadline is bounded by BrowseTimeout, mirroring the pack's
// own mDNS search helper.
func (b *Browser) Browse(ctx context.Context) ([]HostRecord, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, BrowseTimeout)
		defer cancel()
	}

	query := mdns.NewQuery(
		mdns.WithQueryServices(ServiceType),
		mdns.WithQueryDomain(Domain),
	)
	services, err := b.client.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("discovery: query %s: %w", ServiceType, err)
	}

	records := make([]HostRecord, 0, len(services))
	for _, svc := range services {
		rec := HostRecord{Addr: svc.Name()}
		if v, ok := svc.LookupResourceAttribute(TxtHostID); ok {
			rec.HostID = v.Value()
		}
		if v, ok := svc.LookupResourceAttribute(TxtWidth); ok {
			fmt.Sscanf(v.Value(), "%d", &rec.Width)
		}
		if v, ok := svc.LookupResourceAttribute(TxtHeight); ok {
			fmt.Sscanf(v.Value(), "%d", &rec.Height)
		}
		if v, ok := svc.LookupResourceAttribute(TxtFPS); ok {
			fmt.Sscanf(v.Value(), "%d", &rec.FPS)
		}
		if v, ok := svc.LookupResourceAttribute(TxtCodec); ok {
			rec.Codec = v.Value()
		}
		records = append(records, rec)
	}
	b.logger.Debug().Int("count", len(records)).Msg("browse complete")
	return records, nil
}
