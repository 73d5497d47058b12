package cache

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/map-metadata/internal/domain"
)

const (
	keyPrefix      = "metadata:"
	generationKey  = keyPrefix + "query:generation"
	diagnosticsKey = keyPrefix + "run:latest"
)

// queryKey - ключ результата пространственного запроса в рамках поколения
// кеша. Новое поколение делает все старые ключи недостижимыми.
func queryKey(generation int64, table domain.TableName, region domain.Region) string {
	return fmt.Sprintf("%squery:%d:%s:%s", keyPrefix, generation, table, regionKey(region))
}

func regionKey(r domain.Region) string {
	var b strings.Builder
	if r.Point != nil {
		padding := r.Padding
		if padding == 0 {
			padding = domain.DefaultPointPadding
		}
		b.WriteString("p:")
		writeCoord(&b, r.Point.Lon, r.Point.Lat)
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(padding, 'g', -1, 64))
		return b.String()
	}

	b.WriteString("c:")
	for i, c := range r.Corners {
		if i > 0 {
			b.WriteByte(';')
		}
		writeCoord(&b, c.Lon, c.Lat)
	}
	return b.String()
}

func writeCoord(b *strings.Builder, lon, lat float64) {
	b.WriteString(strconv.FormatFloat(lon, 'g', -1, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(lat, 'g', -1, 64))
}
