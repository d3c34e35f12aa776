package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360/sportscache/errors"
	"github.com/c360/sportscache/natsclient"
	"github.com/c360/sportscache/pkg/retry"
	"github.com/c360/sportscache/urn"
)

// Subject layout for the feed bridge. The bridge owns wire-format parsing of
// the remote protocol and answers request/reply with the JSON envelopes
// defined in this package.
const (
	profileSubjectFmt    = "feed.profile.%s.%s"    // feed.profile.<type>.<locale>
	variantSubjectFmt    = "feed.variant.%s.%s.%s" // feed.variant.<type>.<locale>.<variant>
	categoriesSubjectFmt = "feed.categories.%s"    // feed.categories.<locale>
)

// fetchRequest is the request payload sent to the bridge.
type fetchRequest struct {
	ID     urn.URN `json:"id"`
	Locale string  `json:"locale"`
}

// fetchReply is the reply payload. Exactly one of Profile, Categories or
// Error is set.
type fetchReply struct {
	Kind       string        `json:"kind,omitempty"`
	Profile    *ProfileDTO   `json:"profile,omitempty"`
	Categories []CategoryDTO `json:"categories,omitempty"`
	Error      string        `json:"error,omitempty"`
	NotFound   bool          `json:"not_found,omitempty"`
}

// NATSFetcher implements Fetcher over NATS request/reply against the feed
// bridge. Transient failures are retried with exponential backoff.
type NATSFetcher struct {
	client *natsclient.Client
	retry  retry.Config
}

// NewNATSFetcher creates a fetcher bound to an established NATS client.
// Unless the caller installed its own classifier, retries follow the
// standard error classification: transient failures repeat, invalid and
// fatal ones terminate immediately.
func NewNATSFetcher(client *natsclient.Client, retryCfg retry.Config) *NATSFetcher {
	if retryCfg.Retryable == nil {
		retryCfg.Retryable = errors.Retryable
	}
	return &NATSFetcher{client: client, retry: retryCfg}
}

// Fetch implements Fetcher. One call targets exactly one locale.
func (f *NATSFetcher) Fetch(ctx context.Context, id urn.URN, locale string) (*ProfileDTO, error) {
	subject := fmt.Sprintf(profileSubjectFmt, id.Type, locale)
	return f.fetchProfile(ctx, subject, id, locale)
}

// FetchVariant implements VariantFetcher for parametrized market-style
// lookups.
func (f *NATSFetcher) FetchVariant(ctx context.Context, id urn.URN, locale, variant string) (*ProfileDTO, error) {
	if variant == "" {
		return f.Fetch(ctx, id, locale)
	}
	subject := fmt.Sprintf(variantSubjectFmt, id.Type, locale, variant)
	return f.fetchProfile(ctx, subject, id, locale)
}

// FetchCategories implements Fetcher.
func (f *NATSFetcher) FetchCategories(ctx context.Context, sport urn.URN, locale string) ([]CategoryDTO, error) {
	subject := fmt.Sprintf(categoriesSubjectFmt, locale)

	reply, err := f.exchange(ctx, subject, fetchRequest{ID: sport, Locale: locale})
	if err != nil {
		return nil, err
	}
	if reply.NotFound {
		return nil, errors.Wrap(errors.ErrProfileNotFound, "NATSFetcher", "FetchCategories", sport.String())
	}
	return reply.Categories, nil
}

func (f *NATSFetcher) fetchProfile(ctx context.Context, subject string, id urn.URN, locale string) (*ProfileDTO, error) {
	reply, err := f.exchange(ctx, subject, fetchRequest{ID: id, Locale: locale})
	if err != nil {
		return nil, err
	}

	if reply.NotFound {
		return nil, errors.Wrap(errors.ErrProfileNotFound, "NATSFetcher", "Fetch", id.String())
	}
	if reply.Profile == nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "NATSFetcher", "Fetch",
			"empty profile in reply for "+id.String())
	}

	reply.Profile.Kind = KindFromString(reply.Kind)
	if reply.Profile.Payload() == nil {
		return nil, errors.WrapInvalid(errors.ErrDecodeFailed, "NATSFetcher", "Fetch",
			"kind/payload mismatch for "+id.String())
	}
	return reply.Profile, nil
}

// exchange performs the request/reply with retry on transient errors.
// Not-found and decode failures are terminal.
func (f *NATSFetcher) exchange(ctx context.Context, subject string, req fetchRequest) (*fetchReply, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WrapInvalid(err, "NATSFetcher", "exchange", "marshal request")
	}

	return retry.DoWithResult(ctx, f.retry, func() (*fetchReply, error) {
		raw, err := f.client.Request(ctx, subject, data)
		if err != nil {
			return nil, err // already classified transient by natsclient
		}

		var reply fetchReply
		if err := json.Unmarshal(raw, &reply); err != nil {
			// Classified invalid, which the retry classifier rules out.
			return nil, errors.WrapInvalid(err, "NATSFetcher", "exchange", "decode reply")
		}
		if reply.Error != "" {
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: %s", errors.ErrUpstream, reply.Error),
				"NATSFetcher", "exchange", "bridge error")
		}
		if reply.NotFound {
			// Terminal for this locale; surface without retrying.
			return &reply, nil
		}
		return &reply, nil
	})
}
