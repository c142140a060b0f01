package main

import (
	"fmt"
	"strings"
)

// triState is an auto|on|off flag value; auto defers to terminal detection.
type triState string

const (
	stateAuto triState = "auto"
	stateOn   triState = "on"
	stateOff  triState = "off"
)

func (s *triState) Set(v string) error {
	switch t := triState(strings.TrimSpace(strings.ToLower(v))); t {
	case "":
		*s = stateAuto
	case stateAuto, stateOn, stateOff:
		*s = t
	default:
		return fmt.Errorf("invalid value %q (expected auto|on|off)", v)
	}
	return nil
}

func (s *triState) String() string {
	if *s == "" {
		return string(stateAuto)
	}
	return string(*s)
}

func (s *triState) Type() string { return "auto|on|off" }

// enabled resolves the switch; auto yields fallback.
func (s triState) enabled(fallback bool) bool {
	switch s {
	case stateOn:
		return true
	case stateOff:
		return false
	}
	return fallback
}
