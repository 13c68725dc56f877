// Package media coordina el archivo de imagen de un producto con su registro:
// el archivo subido se guarda primero (Stage) y sólo queda asociado al registro
// cuando la escritura en el store termina bien (Commit). Cualquier otro desenlace
// lo borra (Rollback).
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/stock-control-api/internal/domain"
	"github.com/jhoicas/stock-control-api/internal/infrastructure/storage"
	"github.com/jhoicas/stock-control-api/pkg/logger"
	"github.com/jhoicas/stock-control-api/pkg/metrics"
)

// DefaultMaxBytes tamaño máximo de imagen si no se configura otro.
const DefaultMaxBytes int64 = 5 << 20

const folder = "products"

// allowedTypes content types aceptados y la extensión usada al guardar.
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
}

// Upload archivo recibido en la petición.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Lifecycle guarda y libera imágenes de producto en un storage.Disk.
type Lifecycle struct {
	disk     storage.Disk
	log      *logger.Logger
	maxBytes int64
}

// NewLifecycle construye el ciclo de vida. maxBytes <= 0 usa DefaultMaxBytes.
func NewLifecycle(disk storage.Disk, log *logger.Logger, maxBytes int64) *Lifecycle {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Lifecycle{disk: disk, log: log.Named("media"), maxBytes: maxBytes}
}

// Staged archivo guardado pero aún no asociado a un registro.
// Un *Staged nil representa "sin imagen": URL vacía y Commit/Rollback no hacen nada.
type Staged struct {
	lc        *Lifecycle
	key       string
	url       string
	committed bool
}

// Stage valida y guarda up con un nombre único. up nil retorna (nil, nil).
// Un upload rechazado es domain.ErrValidation y no deja nada en el disco.
func (l *Lifecycle) Stage(ctx context.Context, up *Upload) (*Staged, error) {
	if up == nil {
		return nil, nil
	}
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(up.ContentType))]
	if !ok {
		return nil, domain.Validation("la imagen debe ser JPEG o PNG")
	}
	if up.Size > l.maxBytes {
		return nil, domain.Validation(fmt.Sprintf("la imagen supera el máximo de %d bytes", l.maxBytes))
	}
	if up.Content == nil {
		return nil, domain.Validation("la imagen está vacía")
	}

	key := path.Join(folder, "product-"+uuid.NewString()+ext)
	// El límite se vuelve a aplicar al leer: Size viene del cliente.
	r := &limitedReader{r: up.Content, n: l.maxBytes}
	if err := l.disk.Put(ctx, key, r, up.ContentType); err != nil {
		if r.exceeded {
			return nil, domain.Validation(fmt.Sprintf("la imagen supera el máximo de %d bytes", l.maxBytes))
		}
		return nil, domain.Internal("no se pudo guardar la imagen", err)
	}
	metrics.ImageOperations.WithLabelValues("stage").Inc()
	l.log.Debug().Str("key", key).Msg("imagen recibida")
	return &Staged{lc: l, key: key, url: l.disk.URL(key)}, nil
}

// URL referencia pública del archivo; vacía si s es nil.
func (s *Staged) URL() string {
	if s == nil {
		return ""
	}
	return s.url
}

// Commit marca el archivo como propiedad del registro y libera previousURL
// (la imagen anterior del registro) sin propagar errores.
func (s *Staged) Commit(ctx context.Context, previousURL string) {
	if s == nil || s.committed {
		return
	}
	s.committed = true
	metrics.ImageOperations.WithLabelValues("commit").Inc()
	if previousURL != "" && previousURL != s.url {
		s.lc.Release(ctx, previousURL)
	}
}

// Rollback borra el archivo si no se hizo Commit. Seguro de llamar con defer.
func (s *Staged) Rollback(ctx context.Context) {
	if s == nil || s.committed {
		return
	}
	s.committed = true
	metrics.ImageOperations.WithLabelValues("rollback").Inc()
	s.lc.remove(ctx, s.key)
}

// Release borra el archivo referenciado por url. Los fallos se registran y se cuentan;
// nunca afectan la respuesta.
func (l *Lifecycle) Release(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := l.disk.Key(url)
	if !ok {
		l.log.Warn().Str("url", url).Msg("imagen fuera del storage; no se borra")
		return
	}
	metrics.ImageOperations.WithLabelValues("release").Inc()
	l.remove(ctx, key)
}

func (l *Lifecycle) remove(ctx context.Context, key string) {
	// La petición pudo cancelarse; la limpieza debe correr igual.
	ctx = context.WithoutCancel(ctx)
	if err := l.disk.Delete(ctx, key); err != nil {
		metrics.ImageCleanupFailures.Inc()
		l.log.Warn().Err(err).Str("key", key).Msg("no se pudo borrar la imagen")
	}
}

type limitedReader struct {
	r        io.Reader
	n        int64
	exceeded bool
}

func (lr *limitedReader) Read(p []byte) (int, error) {
	if lr.n < 0 {
		lr.exceeded = true
		return 0, errTooLarge
	}
	if int64(len(p)) > lr.n+1 {
		p = p[:lr.n+1]
	}
	n, err := lr.r.Read(p)
	lr.n -= int64(n)
	if lr.n < 0 {
		lr.exceeded = true
		return n, errTooLarge
	}
	return n, err
}

var errTooLarge = errors.New("media: imagen demasiado grande")
