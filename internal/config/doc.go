// Package config provides the CLI configuration file.
//
// The configuration is stored in reconciler.yaml in the working directory.
// Every field is optional; missing fields take their defaults.
//
// # Configuration File Structure
//
//	log:
//	  level: debug
//	  format: text
//	  file: reconcile.log
//	scheduler:
//	  frameInterval: 5ms
//	reconciler:
//	  debug: true
//	  tracerName: reconciler
//	devtools:
//	  host: localhost
//	  port: 7070
//	bench:
//	  items: 1000
//	  iterations: 200
//	  roots: 4
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Devtools:", cfg.DevtoolsAddress())
package config
