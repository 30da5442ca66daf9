// Package config loads and validates the inkwell configuration file.
//
// Configuration is YAML with ${ENV_VAR} expansion:
//
//	server:
//	  host: "notes.example.com"
//	  port: 8443
//	tls:
//	  dir: "/etc/inkwell/tls"   # contains server.pem and server.key
//	devices:
//	  path: "/etc/inkwell/devices"
//	assets:
//	  dir: "/usr/share/inkwell/client"
//	database:
//	  path: "/var/lib/inkwell/inkwell.db"
//	logging:
//	  level: "info"
//	  format: "text"
//
// Only devices.path is required; everything else has a default. The config
// is read once at startup and never reloaded.
package config
