package drone

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tello-control/tello/internal/command"
)

// Battery returns the battery charge in percent.
func (c *Client) Battery(ctx context.Context) (int, error) {
	return c.readInt(ctx, command.ReadBattery)
}

// Speed returns the current speed setting in cm/s.
func (c *Client) Speed(ctx context.Context) (float64, error) {
	raw, err := c.read(ctx, command.ReadSpeed)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s reply %q: %w", command.ReadSpeed, raw, err)
	}
	return v, nil
}

// FlightTime returns the motor time as reported, for example "0s".
func (c *Client) FlightTime(ctx context.Context) (string, error) {
	return c.read(ctx, command.ReadTime)
}

// Wifi returns the wifi signal to noise ratio.
func (c *Client) Wifi(ctx context.Context) (int, error) {
	return c.readInt(ctx, command.ReadWifi)
}

// SDK returns the SDK version of the device.
func (c *Client) SDK(ctx context.Context) (string, error) {
	return c.read(ctx, command.ReadSDK)
}

// Serial returns the device serial number.
func (c *Client) Serial(ctx context.Context) (string, error) {
	return c.read(ctx, command.ReadSerial)
}

func (c *Client) readInt(ctx context.Context, query string) (int, error) {
	raw, err := c.read(ctx, query)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s reply %q: %w", query, raw, err)
	}
	return v, nil
}

// read sends a query and returns its trimmed reply. An "error" reply is a
// DeviceError.
func (c *Client) read(ctx context.Context, query string) (string, error) {
	raw, err := c.ch.Exchange(ctx, query)
	if err != nil {
		c.setErr(err)
		return "", err
	}
	value := strings.TrimSpace(string(raw))
	if value == "" || strings.HasPrefix(value, "error") {
		err := command.NewDeviceError(query, raw)
		c.setErr(err)
		return "", err
	}
	return value, nil
}
