package web

import (
	"errors"
	"net"
)

type Settings struct {
	Addr         string `json:"addr"`
	DataDir      string `json:"data_dir"`
	PageSize     int    `json:"page_size"`
	MaxPageSize  int    `json:"max_page_size"`
	AuthUser     string `json:"auth_user"`
	AuthPassHash string `json:"-"`
}

func (s *Settings) Validate() error {
	if _, _, err := net.SplitHostPort(s.Addr); err != nil {
		return errors.New("addr must be host:port (use :8080 for all interfaces)")
	}

	if s.DataDir == "" {
		return errors.New("data dir is required")
	}

	if s.PageSize < 1 || s.PageSize > s.MaxPageSize {
		return errors.New("page size must be between 1 and the max page size")
	}

	if (s.AuthUser == "") != (s.AuthPassHash == "") {
		return errors.New("auth user and password hash must be set together")
	}

	return nil
}

func (s *Settings) ApplyDefaults() {
	if s.Addr == "" {
		s.Addr = ":8080"
	}

	if s.DataDir == "" {
		s.DataDir = "data"
	}

	if s.MaxPageSize == 0 {
		s.MaxPageSize = 200
	}

	if s.PageSize == 0 {
		s.PageSize = 25
	}
}
