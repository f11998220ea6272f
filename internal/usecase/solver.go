package usecase

import (
	"context"
	"math"
	"time"

	"github.com/route-optimization-engine/internal/domain"
)

// glsMaxRounds ограничивает число раундов штрафовки. Для кластеров обычного
// размера раунды заканчиваются раньше бюджета, что делает результат
// воспроизводимым
const glsMaxRounds = 200

// solveGuided ищет тур управляемым локальным поиском: старт с самой дешевой
// вставки, затем раунды 2-opt по штрафованной стоимости под жестким бюджетом
// стенных часов. Отказ возможен только до построения первого решения
func (s *RouteSequencer) solveGuided(ctx context.Context, m *domain.DistanceMatrix) ([]int, bool) {
	if s.budget <= 0 || ctx.Err() != nil {
		return nil, false
	}

	deadline := time.Now().Add(s.budget)

	order := cheapestInsertionOrder(m)
	if len(order) == 0 {
		return nil, false
	}

	best := append([]int(nil), order...)
	bestCost := tourCost(m, best)

	lambda := s.penaltyFactor * meanEdgeCost(m)
	penalties := make([][]float64, m.Size())
	for i := range penalties {
		penalties[i] = make([]float64, m.Size())
	}

	augmented := func(a, b int) float64 {
		return m.Distance(a, b) + lambda*penalties[a][b]
	}

	for round := 0; round < glsMaxRounds; round++ {
		if ctx.Err() != nil || time.Now().After(deadline) {
			break
		}

		twoOptImprove(order, augmented, s.maxPasses)

		if cost := tourCost(m, order); cost < bestCost-1e-9 {
			bestCost = cost
			copy(best, order)
		}

		penalizeTourEdges(m, order, penalties)
	}

	return best, true
}

// cheapestInsertionOrder строит стартовый тур: начинает с ближайшей к депо
// остановки и вставляет очередную непосещенную в позицию с минимальным
// удорожанием тура. При равной цене выигрывают меньший индекс остановки и
// меньшая позиция
func cheapestInsertionOrder(m *domain.DistanceMatrix) []int {
	n := m.Size() - 1
	if n <= 0 {
		return []int{}
	}

	visited := make([]bool, n)

	first := 0
	bestDist := math.MaxFloat64
	for j := 0; j < n; j++ {
		if d := m.Distance(0, j+1); d < bestDist {
			bestDist = d
			first = j
		}
	}

	order := make([]int, 0, n)
	order = append(order, first)
	visited[first] = true

	for len(order) < n {
		bestStop := -1
		bestPos := 0
		bestDelta := math.MaxFloat64

		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}

			for pos := 0; pos <= len(order); pos++ {
				prev := 0
				if pos > 0 {
					prev = order[pos-1] + 1
				}
				next := 0
				if pos < len(order) {
					next = order[pos] + 1
				}

				delta := m.Distance(prev, j+1) + m.Distance(j+1, next) - m.Distance(prev, next)
				if delta < bestDelta-1e-9 {
					bestDelta = delta
					bestStop = j
					bestPos = pos
				}
			}
		}

		order = append(order, 0)
		copy(order[bestPos+1:], order[bestPos:])
		order[bestPos] = bestStop
		visited[bestStop] = true
	}

	return order
}

// penalizeTourEdges поднимает штраф ребер текущего тура с максимальной
// полезностью cost/(1+penalty), стандартный шаг guided local search
func penalizeTourEdges(m *domain.DistanceMatrix, order []int, penalties [][]float64) {
	edges := tourEdges(order)

	maxUtil := -1.0
	for _, e := range edges {
		util := m.Distance(e[0], e[1]) / (1 + penalties[e[0]][e[1]])
		if util > maxUtil {
			maxUtil = util
		}
	}

	for _, e := range edges {
		util := m.Distance(e[0], e[1]) / (1 + penalties[e[0]][e[1]])
		if util >= maxUtil-1e-9 {
			penalties[e[0]][e[1]]++
		}
	}
}

// tourEdges перечисляет направленные ребра тура в матричных индексах,
// включая выезд из депо и возврат
func tourEdges(order []int) [][2]int {
	edges := make([][2]int, 0, len(order)+1)

	prev := 0
	for _, stop := range order {
		edges = append(edges, [2]int{prev, stop + 1})
		prev = stop + 1
	}
	edges = append(edges, [2]int{prev, 0})

	return edges
}

func meanEdgeCost(m *domain.DistanceMatrix) float64 {
	n := m.Size()
	if n < 2 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				sum += m.Distance(i, j)
			}
		}
	}

	return sum / float64(n*(n-1))
}
