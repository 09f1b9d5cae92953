// Package rtc describes the peer connection setup handed to browsers. The
// server never terminates media itself.
package rtc

import (
	"strings"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

const DefaultSTUN = "stun:stun.l.google.com:19302"

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{DefaultSTUN},
			},
		},
	}
}

// ConfigFromURLs builds the client configuration from configured ICE urls.
// Entries that are not stun/turn urls are skipped.
func ConfigFromURLs(urls []string) webrtc.Configuration {
	var servers []webrtc.ICEServer
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if !isICEURL(u) {
			if u != "" {
				log.Warn().Str("module", "rtc").Str("url", u).Msg("ignoring ice server")
			}
			continue
		}
		servers = append(servers, webrtc.ICEServer{URLs: []string{u}})
	}
	if len(servers) == 0 {
		return DefaultWebRTCConfig()
	}
	return webrtc.Configuration{ICEServers: servers}
}

func isICEURL(u string) bool {
	for _, scheme := range []string{"stun:", "stuns:", "turn:", "turns:"} {
		if strings.HasPrefix(u, scheme) {
			return true
		}
	}
	return false
}
