package domain

// Методы кластеризации
const (
	ClusterMethodDensity  = "density"
	ClusterMethodCentroid = "centroid"
)

// Cluster представляет группу заказов, порядок внутри группы не определен.
// Orders содержит индексы в массив точек, переданный кластеризатору
type Cluster struct {
	Index  int   `json:"index"`
	Orders []int `json:"orders"`
}

// Size возвращает число заказов в кластере
func (c *Cluster) Size() int {
	return len(c.Orders)
}
