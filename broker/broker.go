// Copyright (c) 2025 The RVDM Project and its Contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package broker is the thin facade over the Gearman job broker: submit,
// submit-background, and wait. Worker-side registration lives in the worker
// package.
package broker

import (
	"context"

	"github.com/mikespook/gearman-go/client"

	"github.com/rvdm/rvdm/config"
)

// A Submitter enqueues jobs on the broker. Handlers and the scheduler depend
// on this interface so tests can capture submissions.
type Submitter interface {
	// submits a background (fire-and-forget) job
	SubmitBackground(jobName string, payload []byte) (string, error)
	// submits a job and waits for its completion data
	SubmitAndWait(ctx context.Context, jobName string, payload []byte) ([]byte, error)
}

// A Client talks to the first configured broker server.
type Client struct {
	gearman *client.Client
}

// Connects to the job broker using the global configuration.
func NewClient() (*Client, error) {
	gc, err := client.New(client.Network, config.Broker.Servers[0])
	if err != nil {
		return nil, &ConnectError{Server: config.Broker.Servers[0], Message: err.Error()}
	}
	return &Client{gearman: gc}, nil
}

func (c *Client) Close() {
	if c.gearman != nil {
		c.gearman.Close()
	}
}

// Submits a background job. The broker distributes it to any subscribed
// worker; nobody waits on the result.
func (c *Client) SubmitBackground(jobName string, payload []byte) (string, error) {
	handle, err := c.gearman.DoBg(jobName, payload, client.JobNormal)
	if err != nil {
		return "", &SubmitError{JobName: jobName, Message: err.Error()}
	}
	return handle, nil
}

// Submits a job and blocks until it completes (or the context is done),
// returning the completion data.
func (c *Client) SubmitAndWait(ctx context.Context, jobName string, payload []byte) ([]byte, error) {
	done := make(chan *client.Response, 1)
	_, err := c.gearman.Do(jobName, payload, client.JobNormal,
		func(resp *client.Response) {
			select {
			case done <- resp:
			default:
			}
		})
	if err != nil {
		return nil, &SubmitError{JobName: jobName, Message: err.Error()}
	}
	select {
	case resp := <-done:
		data, err := resp.Result()
		if err != nil {
			return nil, &JobFailedError{JobName: jobName, Message: err.Error()}
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
