package symbols

import (
	"strings"

	"github.com/lemon07r/pampax/pkg/types"
)

// detectDDDPatterns sets a Symbol's naming-convention DDD flags. It applies
// only to type-shaped symbols; functions and methods are never tagged.
func detectDDDPatterns(sym *types.Symbol) {
	if sym.Kind != types.KindStruct && sym.Kind != types.KindInterface &&
		sym.Kind != types.KindClass && sym.Kind != types.KindType {
		return
	}

	checkAggregateRoot(sym)
	checkEntity(sym)
	checkValueObject(sym)
	checkRepository(sym)
	checkService(sym)
	checkCommand(sym)
	checkQuery(sym)
	checkHandler(sym)
}

func checkAggregateRoot(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Aggregate") || strings.HasSuffix(sym.Name, "AggregateRoot") {
		sym.IsAggregateRoot = true
		sym.IsEntity = true
	}
}

func checkEntity(sym *types.Symbol) {
	if sym.IsEntity {
		return
	}
	if strings.HasSuffix(sym.Name, "Entity") {
		sym.IsEntity = true
		return
	}
	indicators := []string{"Order", "User", "Product", "Account", "Customer", "Item"}
	for _, ind := range indicators {
		if strings.Contains(sym.Name, ind) &&
			!strings.HasSuffix(sym.Name, "Service") &&
			!strings.HasSuffix(sym.Name, "Repository") &&
			!strings.HasSuffix(sym.Name, "Handler") {
			sym.IsEntity = true
			return
		}
	}
}

func checkValueObject(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "VO") || strings.HasSuffix(sym.Name, "ValueObject") {
		sym.IsValueObject = true
	}
}

func checkRepository(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Repository") || strings.HasSuffix(sym.Name, "Repo") {
		sym.IsRepository = true
	}
}

func checkService(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Service") {
		sym.IsService = true
	}
}

func checkCommand(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Command") || strings.HasSuffix(sym.Name, "Cmd") {
		sym.IsCommand = true
	}
}

func checkQuery(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Query") {
		sym.IsQuery = true
	}
}

func checkHandler(sym *types.Symbol) {
	if strings.HasSuffix(sym.Name, "Handler") {
		sym.IsHandler = true
	}
}
