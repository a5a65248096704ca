package outbox

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsConnectivityError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil",
			err:  nil,
			want: false,
		},
		{
			name: "offline sentinel",
			err:  ErrOffline,
			want: true,
		},
		{
			name: "wrapped offline sentinel",
			err:  fmt.Errorf("submit: %w", ErrOffline),
			want: true,
		},
		{
			name: "deadline exceeded",
			err:  context.DeadlineExceeded,
			want: true,
		},
		{
			name: "net op error",
			err:  &net.OpError{Op: "dial", Err: errors.New("connection refused")},
			want: true,
		},
		{
			name: "url error",
			err:  &url.Error{Op: "Post", URL: "http://api.stridefit.run", Err: errors.New("no such host")},
			want: true,
		},
		{
			name: "api error 500",
			err:  &APIError{StatusCode: 500, Body: "internal error"},
			want: false,
		},
		{
			name: "wrapped api error",
			err:  fmt.Errorf("submit: %w", &APIError{StatusCode: 422, Body: "bad payload"}),
			want: false,
		},
		{
			name: "plain error",
			err:  errors.New("something else"),
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsConnectivityError(tc.err))
		})
	}
}
