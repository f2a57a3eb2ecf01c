// Package connectors holds the upstream triggers that feed documents into
// ingestion. Each connector implements driven.Connector for one source type;
// the filesystem connector is the only one today.
package connectors
