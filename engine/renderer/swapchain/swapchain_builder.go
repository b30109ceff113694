package swapchain

import "log/slog"

// SwapchainBuilderOption is a functional option applied to a swapchain during construction via NewSwapchain.
type SwapchainBuilderOption func(*swapchain)

// WithLogger replaces the swapchain's logger.
//
// Parameters:
//   - l: the logger to use; nil keeps the package default
//
// Returns:
//   - SwapchainBuilderOption: a function that applies the logger option to a swapchain
func WithLogger(l *slog.Logger) SwapchainBuilderOption {
	return func(s *swapchain) {
		if l != nil {
			s.log = l
		}
	}
}
