package repository

// Option applies a configuration option to the RatingStore.
type Option func(*RatingStore)

// WithInitialRating sets the rating and peak given to a competitor on first
// appearance.
func WithInitialRating(rating float64) Option {
	return func(s *RatingStore) {
		s.initialRating = rating
	}
}
