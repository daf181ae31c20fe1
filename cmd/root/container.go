package root

import (
	"fmt"

	"fjacquet/invoice-reconciler/internal/container"
)

// MustContainer returns the container or an error when the pre-run did not
// build one.
func MustContainer() (*container.Container, error) {
	if AppContainer == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	return AppContainer, nil
}
