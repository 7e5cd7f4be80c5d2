package domain

import "time"

// Schema versions for persisted player records. The migration engine upgrades
// records strictly forward through these versions.
const (
	SchemaVersionV1 = "1.0"
	SchemaVersionV2 = "2.0"

	// CurrentSchemaVersion is the version stamped onto freshly created and
	// newly migrated records.
	CurrentSchemaVersion = SchemaVersionV2
)

// Track identifies an independent progress counter with its own claimed set.
type Track string

const (
	// TrackCaught is the primary track: unique species caught.
	TrackCaught Track = "caught"

	// TrackShiny counts unique shiny species caught (v2.0+ records).
	TrackShiny Track = "shiny"

	// TrackLivingDex tracks the open-ended living-dex collection (v2.0+).
	// Its counter is derived from the size of the species set rather than
	// stored directly.
	TrackLivingDex Track = "living_dex"
)

// IsValid returns true if the track is a known track.
func (t Track) IsValid() bool {
	switch t {
	case TrackCaught, TrackShiny, TrackLivingDex:
		return true
	default:
		return false
	}
}

// ClaimOutcome is the result of a claim attempt. All four values are ordinary
// outcomes for the caller to translate into a message, never errors.
type ClaimOutcome string

const (
	// ClaimGranted indicates the tier's reward actions were dispatched and
	// the tier is now marked claimed.
	ClaimGranted ClaimOutcome = "granted"

	// ClaimAlreadyClaimed indicates the tier was claimed on an earlier call.
	ClaimAlreadyClaimed ClaimOutcome = "already_claimed"

	// ClaimNotYetEligible indicates completion has not reached the tier's
	// threshold.
	ClaimNotYetEligible ClaimOutcome = "not_yet_eligible"

	// ClaimNoSuchTier indicates the tier key is not configured.
	ClaimNoSuchTier ClaimOutcome = "no_such_tier"
)

// PlayerRecord is the per-player progression document. One record is persisted
// per player UUID. The JSON field names are the on-disk compatibility surface
// and must not change.
type PlayerRecord struct {
	Version                 string          `json:"version"`
	TotalCaught             int             `json:"totalCaught"`
	TotalShinyCaught        int             `json:"totalShinyCaught"`
	HighestTierReached      int             `json:"highestTierReached"`
	HighestShinyTierReached int             `json:"highestShinyTierReached"`
	ClaimedRewards          map[int]bool    `json:"claimedRewards"`
	ClaimedShinyRewards     map[int]bool    `json:"claimedShinyRewards"`
	ClaimedLivingDexRewards map[int]bool    `json:"claimedLivingDexRewards"`
	LivingDexSpecies        map[string]bool `json:"livingDexSpecies"`
	LastSaveTime            int64           `json:"lastSaveTime"` // unix millis
}

// NewPlayerRecord creates a fresh record at the current schema version with
// all counters zero.
func NewPlayerRecord() *PlayerRecord {
	return &PlayerRecord{
		Version:                 CurrentSchemaVersion,
		ClaimedRewards:          map[int]bool{},
		ClaimedShinyRewards:     map[int]bool{},
		ClaimedLivingDexRewards: map[int]bool{},
		LivingDexSpecies:        map[string]bool{},
		LastSaveTime:            time.Now().UnixMilli(),
	}
}

// Normalize replaces nil maps with empty ones and backfills the version
// field. Called after decoding a persisted document so the rest of the code
// never has to nil-check.
func (r *PlayerRecord) Normalize() {
	if r.Version == "" {
		r.Version = CurrentSchemaVersion
	}
	if r.ClaimedRewards == nil {
		r.ClaimedRewards = map[int]bool{}
	}
	if r.ClaimedShinyRewards == nil {
		r.ClaimedShinyRewards = map[int]bool{}
	}
	if r.ClaimedLivingDexRewards == nil {
		r.ClaimedLivingDexRewards = map[int]bool{}
	}
	if r.LivingDexSpecies == nil {
		r.LivingDexSpecies = map[string]bool{}
	}
}

// Touch refreshes the last-save timestamp. Every mutating call goes through
// this before the record is persisted.
func (r *PlayerRecord) Touch() {
	r.LastSaveTime = time.Now().UnixMilli()
}

// claimedSet returns the claimed map for a track.
func (r *PlayerRecord) claimedSet(track Track) map[int]bool {
	switch track {
	case TrackShiny:
		return r.ClaimedShinyRewards
	case TrackLivingDex:
		return r.ClaimedLivingDexRewards
	default:
		return r.ClaimedRewards
	}
}

// HasClaimed reports whether the tier has been claimed on the given track.
// Absence means unclaimed.
func (r *PlayerRecord) HasClaimed(track Track, tier int) bool {
	return r.claimedSet(track)[tier]
}

// SetClaimed marks a tier claimed on the given track and raises the track's
// high-water mark if the tier is above it. The mark is never lowered and a
// claimed flag is never cleared.
func (r *PlayerRecord) SetClaimed(track Track, tier int) {
	r.claimedSet(track)[tier] = true
	switch track {
	case TrackCaught:
		if tier > r.HighestTierReached {
			r.HighestTierReached = tier
		}
	case TrackShiny:
		if tier > r.HighestShinyTierReached {
			r.HighestShinyTierReached = tier
		}
	}
	r.Touch()
}

// Counter returns the progress counter for a track. The living-dex counter is
// the size of the species set.
func (r *PlayerRecord) Counter(track Track) int {
	switch track {
	case TrackShiny:
		return r.TotalShinyCaught
	case TrackLivingDex:
		return len(r.LivingDexSpecies)
	default:
		return r.TotalCaught
	}
}

// SetCounter stores a counter value for the caught or shiny track. Monotonic
// enforcement is the claim engine's job; the record stores whatever it is
// told. The living-dex counter is derived, so setting it is ignored.
func (r *PlayerRecord) SetCounter(track Track, count int) {
	switch track {
	case TrackCaught:
		r.TotalCaught = count
	case TrackShiny:
		r.TotalShinyCaught = count
	}
	r.Touch()
}

// AddLivingDexSpecies adds a species to the living-dex set. Returns true if
// the species was not already present.
func (r *PlayerRecord) AddLivingDexSpecies(species string) bool {
	if r.LivingDexSpecies[species] {
		return false
	}
	r.LivingDexSpecies[species] = true
	r.Touch()
	return true
}

// RemoveLivingDexSpecies removes a species from the living-dex set.
func (r *PlayerRecord) RemoveLivingDexSpecies(species string) {
	delete(r.LivingDexSpecies, species)
	r.Touch()
}

// ReplaceLivingDexSpecies replaces the whole living-dex set.
func (r *PlayerRecord) ReplaceLivingDexSpecies(species []string) {
	r.LivingDexSpecies = make(map[string]bool, len(species))
	for _, s := range species {
		r.LivingDexSpecies[s] = true
	}
	r.Touch()
}

// Clone returns a deep copy of the record. The store hands clones to callers
// so cached records are only ever mutated under the per-player lock.
func (r *PlayerRecord) Clone() *PlayerRecord {
	out := *r
	out.ClaimedRewards = make(map[int]bool, len(r.ClaimedRewards))
	for k, v := range r.ClaimedRewards {
		out.ClaimedRewards[k] = v
	}
	out.ClaimedShinyRewards = make(map[int]bool, len(r.ClaimedShinyRewards))
	for k, v := range r.ClaimedShinyRewards {
		out.ClaimedShinyRewards[k] = v
	}
	out.ClaimedLivingDexRewards = make(map[int]bool, len(r.ClaimedLivingDexRewards))
	for k, v := range r.ClaimedLivingDexRewards {
		out.ClaimedLivingDexRewards[k] = v
	}
	out.LivingDexSpecies = make(map[string]bool, len(r.LivingDexSpecies))
	for k, v := range r.LivingDexSpecies {
		out.LivingDexSpecies[k] = v
	}
	return &out
}
