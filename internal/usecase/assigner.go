package usecase

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/route-optimization-engine/internal/domain"
)

// DriverAssigner распределяет кластеры заказов по водителям и выдает каждому
// назначению имя, цвет и номер слота
type DriverAssigner struct {
	logger *zap.Logger
}

// NewDriverAssigner создает новый DriverAssigner
func NewDriverAssigner(logger *zap.Logger) *DriverAssigner {
	return &DriverAssigner{logger: logger}
}

// Assign распределяет кластеры по водителям. Недоступные водители
// отфильтровываются, но если доступных нет совсем, используются все: пустой
// план хуже плана с занятым водителем
func (a *DriverAssigner) Assign(
	clusters []domain.Cluster,
	stops []domain.Stop,
	drivers []domain.Driver,
	strategy string,
) []domain.RouteAssignment {
	if len(clusters) == 0 || len(drivers) == 0 {
		return nil
	}

	available := make([]domain.Driver, 0, len(drivers))
	for _, d := range drivers {
		if d.Available {
			available = append(available, d)
		}
	}
	if len(available) == 0 {
		a.logger.Warn("No available drivers, assigning to unavailable ones",
			zap.Int("drivers", len(drivers)))
		available = drivers
	}

	var assignments []domain.RouteAssignment
	switch strategy {
	case domain.AssignStrategySequential:
		assignments = a.assignSequential(clusters, stops, available)
	default:
		assignments = a.assignBalanced(clusters, stops, available)
	}

	a.logger.Info("Clusters assigned to drivers",
		zap.Int("clusters", len(clusters)),
		zap.Int("drivers", len(available)),
		zap.String("strategy", strategy))

	return assignments
}

// assignBalanced отдает очередной по размеру кластер наименее загруженному
// водителю. Загрузка считается в заказах, при равенстве выигрывает меньший
// идентификатор водителя
func (a *DriverAssigner) assignBalanced(
	clusters []domain.Cluster,
	stops []domain.Stop,
	drivers []domain.Driver,
) []domain.RouteAssignment {
	ordered := make([]domain.Cluster, len(clusters))
	copy(ordered, clusters)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Size() != ordered[j].Size() {
			return ordered[i].Size() > ordered[j].Size()
		}
		return ordered[i].Index < ordered[j].Index
	})

	load := make(map[int64]int, len(drivers))
	assignments := make([]domain.RouteAssignment, 0, len(ordered))

	for slot, cluster := range ordered {
		best := drivers[0]
		for _, d := range drivers[1:] {
			if load[d.ID] < load[best.ID] || (load[d.ID] == load[best.ID] && d.ID < best.ID) {
				best = d
			}
		}

		load[best.ID] += cluster.Size()
		assignments = append(assignments, a.newAssignment(best, cluster, stops, slot))
	}

	sort.SliceStable(assignments, func(i, j int) bool {
		return assignments[i].DriverID < assignments[j].DriverID
	})

	return assignments
}

// assignSequential раздает кластеры по кругу в порядке входа, без учета
// загрузки
func (a *DriverAssigner) assignSequential(
	clusters []domain.Cluster,
	stops []domain.Stop,
	drivers []domain.Driver,
) []domain.RouteAssignment {
	assignments := make([]domain.RouteAssignment, 0, len(clusters))
	for slot, cluster := range clusters {
		driver := drivers[slot%len(drivers)]
		assignments = append(assignments, a.newAssignment(driver, cluster, stops, slot))
	}

	return assignments
}

func (a *DriverAssigner) newAssignment(
	driver domain.Driver,
	cluster domain.Cluster,
	stops []domain.Stop,
	slot int,
) domain.RouteAssignment {
	orders := make([]int64, 0, cluster.Size())
	for _, idx := range cluster.Orders {
		orders = append(orders, stops[idx].ID)
	}

	return domain.RouteAssignment{
		DriverID:   driver.ID,
		DriverName: driver.Name,
		Orders:     orders,
		RouteName:  routeDisplayName(driver.Name, slot),
		Color:      domain.RouteColors[slot%len(domain.RouteColors)],
		Slot:       slot,
	}
}

// routeDisplayName строит короткое имя маршрута: инициалы первых двух слов
// имени водителя, для однословного имени первые две буквы, для пустого
// позиционный запасной вариант
func routeDisplayName(driverName string, slot int) string {
	words := strings.Fields(driverName)
	if len(words) == 0 {
		return fmt.Sprintf("R%d", slot+1)
	}

	if len(words) == 1 {
		runes := []rune(words[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	}

	first := []rune(words[0])
	second := []rune(words[1])
	return strings.ToUpper(string(first[0]) + string(second[0]))
}
