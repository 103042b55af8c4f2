// Package files provides discovery of raw invoice export workbooks.
// Selection is mtime-based: the pipeline always processes the most
// recently modified export in the raw data directory.
package files
