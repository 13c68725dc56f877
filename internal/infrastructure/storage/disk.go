// Package storage guarda los archivos subidos (imágenes de producto).
//
// Drivers:
//   - "local": sistema de archivos local, servido por el propio servidor HTTP
//   - "s3":    almacenamiento S3-compatible (AWS S3, MinIO, R2)
//
// Los archivos se identifican por una key relativa ("products/product-<uuid>.png");
// los registros guardan la URL pública que devuelve URL(key).
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/jhoicas/stock-control-api/pkg/config"
)

// Disk contrato del almacén de archivos.
type Disk interface {
	// Put escribe r en key, creando lo necesario. Un fallo no deja archivo parcial.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Delete borra key. Retorna nil si no existía.
	Delete(ctx context.Context, key string) error
	// Exists informa si key existe.
	Exists(ctx context.Context, key string) (bool, error)
	// URL devuelve la referencia pública de key.
	URL(key string) string
	// Key es el inverso de URL; false si la URL no pertenece a este disco.
	Key(url string) (string, bool)
}

// New construye el driver indicado por cfg.Disk.
func New(ctx context.Context, cfg config.StorageConfig) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocalDisk(cfg.LocalRoot, cfg.PublicPrefix)
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			BaseURL:  cfg.S3URL,
		})
	default:
		return nil, fmt.Errorf("storage: disco %q no soportado", cfg.Disk)
	}
}

// cleanKey normaliza una key relativa y rechaza las que escapan de la raíz.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("storage: key vacía")
	}
	if k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("storage: key inválida %q", key)
	}
	return k, nil
}
