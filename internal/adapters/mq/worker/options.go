package worker

import "github.com/adrata/crmops/pkg/logger"

// Option configures a Worker.
type Option func(*Worker)

// WithName sets the worker's name, used for its named logger.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithPublisher attaches an event publisher for rank updates.
func WithPublisher(p Publisher) Option {
	return func(w *Worker) {
		w.publisher = p
	}
}

// WithLogger overrides the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}
