package sources

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/jobpilot/internal/common"
	"github.com/ternarybob/jobpilot/internal/interfaces"
	"github.com/ternarybob/jobpilot/internal/models"
	"github.com/ternarybob/jobpilot/internal/services/llm/offline"
)

const (
	// DefaultMaxResults caps the combined discovery result
	DefaultMaxResults = 30

	// maxRoles bounds how many target roles are queried per run
	maxRoles = 3

	// PlaceholderURL is the fixed dedup key of the placeholder listing
	PlaceholderURL = "jobpilot:placeholder"
)

// Discoverer runs the discovery pipeline over the enabled sources
type Discoverer struct {
	sources []interfaces.JobSource
	ai      interfaces.AIService
	config  common.SourcesConfig
	logger  arbor.ILogger
}

// NewSources builds the adapters enabled in config
func NewSources(cfg *common.SourcesConfig, logger arbor.ILogger) []interfaces.JobSource {
	opts := OptionsFromConfig(cfg)
	var list []interfaces.JobSource
	if cfg.Remotive {
		list = append(list, NewRemotiveSource(logger, opts...))
	}
	if cfg.Jobicy {
		list = append(list, NewJobicySource(logger, opts...))
	}
	if cfg.RemoteOK {
		list = append(list, NewRemoteOKSource(logger, opts...))
	}
	return list
}

// NewDiscoverer creates a discoverer. ai may be nil, which disables AI Search.
func NewDiscoverer(sources []interfaces.JobSource, ai interfaces.AIService, cfg *common.SourcesConfig, logger arbor.ILogger) *Discoverer {
	return &Discoverer{
		sources: sources,
		ai:      ai,
		config:  *cfg,
		logger:  logger,
	}
}

// Discover queries every source for the profile's target roles and returns a cleaned,
// seniority-filtered, deduplicated, shuffled and capped list. It never returns an empty list.
func (d *Discoverer) Discover(ctx context.Context, profile models.UserProfile) ([]models.JobListing, error) {
	roles := targetRoles(profile)
	region := ""
	if len(profile.Regions) > 0 {
		region = profile.Regions[0]
	}

	d.logger.Info().
		Str("roles", strings.Join(roles, ", ")).
		Int("sources", len(d.sources)).
		Msg("Discovery started")

	found := d.fetchAll(ctx, roles, region)

	if d.ai != nil && d.config.AISearch {
		aiJobs, err := d.ai.SearchJobs(ctx, profile, strings.Join(roles, ", "))
		if err != nil {
			d.logger.Warn().Err(err).Msg("AI search failed")
		} else {
			found = append(found, aiJobs...)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := d.config.DescriptionLimit
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}
	for i := range found {
		found[i].Title = CleanText(found[i].Title, 0)
		found[i].Company = CleanText(found[i].Company, 0)
		found[i].Location = CleanText(found[i].Location, 0)
		found[i].Description = CleanText(found[i].Description, limit)
	}

	filtered := FilterBySeniority(found, profile.ExperienceLevel)
	unique := Dedupe(filtered)
	d.shuffle(unique)

	maxResults := d.config.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	if len(unique) > maxResults {
		unique = unique[:maxResults]
	}

	d.logger.Info().
		Int("fetched", len(found)).
		Int("after_seniority", len(filtered)).
		Int("returned", len(unique)).
		Msg("Discovery finished")

	if len(unique) == 0 {
		return []models.JobListing{Placeholder()}, nil
	}
	return unique, nil
}

// fetchAll queries sources concurrently; roles are queried in order within one source
func (d *Discoverer) fetchAll(ctx context.Context, roles []string, region string) []models.JobListing {
	perSource := make([][]models.JobListing, len(d.sources))
	var wg sync.WaitGroup
	for i, src := range d.sources {
		wg.Add(1)
		go func(i int, src interfaces.JobSource) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error().Str("source", src.Name()).Msgf("Source panicked: %v", r)
				}
			}()
			for _, role := range roles {
				jobs, err := src.Fetch(ctx, interfaces.JobQuery{Role: role, Region: region, Limit: d.config.PerSourceCount})
				if err != nil {
					d.logger.Warn().Err(err).Str("source", src.Name()).Str("role", role).Msg("Source fetch failed")
					if ctx.Err() != nil {
						return
					}
					continue
				}
				d.logger.Debug().Str("source", src.Name()).Str("role", role).Int("count", len(jobs)).Msg("Source fetched")
				perSource[i] = append(perSource[i], jobs...)
			}
		}(i, src)
	}
	wg.Wait()

	var all []models.JobListing
	for _, jobs := range perSource {
		all = append(all, jobs...)
	}
	return all
}

func (d *Discoverer) shuffle(jobs []models.JobListing) {
	seed := d.config.ShuffleSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })
}

// Dedupe keeps the first listing per dedup key, preserving order
func Dedupe(jobs []models.JobListing) []models.JobListing {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]models.JobListing, 0, len(jobs))
	for _, j := range jobs {
		key := j.DedupKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, j)
	}
	return out
}

// Placeholder is returned when discovery finds nothing
func Placeholder() models.JobListing {
	job := newListing(models.SourcePlaceholder)
	job.Title = "No live listings found"
	job.Company = "JobPilot"
	job.Location = "Remote"
	job.URL = PlaceholderURL
	job.Description = "No job board returned listings for your target roles. Broaden your roles or regions, add jobs manually, or import a posting by URL."
	return job
}

func targetRoles(profile models.UserProfile) []string {
	var roles []string
	for _, r := range profile.TargetRoles {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
		if len(roles) == maxRoles {
			break
		}
	}
	if len(roles) == 0 {
		roles = []string{offline.DefaultRole}
	}
	return roles
}
